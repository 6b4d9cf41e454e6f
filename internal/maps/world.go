package maps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

var ErrMapFileMissing = errors.New("map_file_missing")

// WorldHandle is an opaque reference to a loaded world.
type WorldHandle interface {
	Name() string
}

// WorldProvider loads and unloads the playable world behind a map. LoadWorld
// may block and is never called on the tick goroutine.
type WorldProvider interface {
	LoadWorld(ctx context.Context, m *Map) (WorldHandle, error)
	UnloadWorld(h WorldHandle) error
}

type dirWorld struct {
	name string
	path string
}

func (w dirWorld) Name() string { return w.name }

// DirProvider resolves map files under a root directory and hands out one
// uniquely named world per load.
type DirProvider struct {
	root string
	seq  atomic.Int64

	mu     sync.Mutex
	loaded map[string]string
}

func NewDirProvider(root string) *DirProvider {
	return &DirProvider{root: root, loaded: make(map[string]string)}
}

func (p *DirProvider) LoadWorld(ctx context.Context, m *Map) (WorldHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := m.File()
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.root, path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMapFileMissing, m.Name(), err)
	}
	w := dirWorld{name: fmt.Sprintf("%s-%d", m.Name(), p.seq.Add(1)), path: path}
	p.mu.Lock()
	p.loaded[w.name] = path
	p.mu.Unlock()
	return w, nil
}

func (p *DirProvider) UnloadWorld(h WorldHandle) error {
	if h == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.loaded[h.Name()]; !ok {
		return fmt.Errorf("world %s is not loaded", h.Name())
	}
	delete(p.loaded, h.Name())
	return nil
}

// Loaded reports how many worlds are currently loaded.
func (p *DirProvider) Loaded() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.loaded)
}
