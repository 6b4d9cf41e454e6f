package maps

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Catalog stores map templates keyed by game and name. Templates are never
// handed out directly.
type Catalog struct {
	mu   sync.RWMutex
	maps map[string]map[string]*Map
}

func NewCatalog() *Catalog {
	return &Catalog{maps: make(map[string]map[string]*Map)}
}

// Load reads JSON descriptors. A path may be a single file holding one
// descriptor or a list, or a directory whose *.json files are read. Missing
// paths are skipped.
func (c *Catalog) Load(paths ...string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", p).Msg("map path not found; skipping")
			continue
		}
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		files := []string{p}
		if info.IsDir() {
			files, err = filepath.Glob(filepath.Join(p, "*.json"))
			if err != nil {
				return err
			}
			sort.Strings(files)
		}
		for _, f := range files {
			if err := c.loadFile(f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Catalog) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var list []Descriptor
	if err := json.Unmarshal(b, &list); err != nil {
		var one Descriptor
		if err := json.Unmarshal(b, &one); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		list = []Descriptor{one}
	}
	for _, d := range list {
		m, err := NewMap(d)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		c.Add(m)
		log.Debug().Str("game", m.Game()).Str("map", m.Name()).Msg("map registered")
	}
	return nil
}

// Add stores a copy of m, replacing any map of the same game and name.
func (c *Catalog) Add(m *Map) {
	c.mu.Lock()
	defer c.mu.Unlock()
	byName, ok := c.maps[m.Game()]
	if !ok {
		byName = make(map[string]*Map)
		c.maps[m.Game()] = byName
	}
	byName[m.Name()] = m.Clone()
}

// Get checks out a fresh clone of the named map.
func (c *Catalog) Get(game, name string) (*Map, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.maps[game][name]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// List returns clones of every map for game sorted by name. With teamMaps
// only maps that allow teams are returned.
func (c *Catalog) List(game string, teamMaps bool) []*Map {
	return c.filter(game, func(m *Map) bool { return !teamMaps || m.AllowTeams() })
}

// BySpawnCount returns maps of game with exactly n spawn points.
func (c *Catalog) BySpawnCount(game string, n int, teamMaps bool) []*Map {
	return c.filter(game, func(m *Map) bool {
		return m.SpawnCount() == n && (!teamMaps || m.AllowTeams())
	})
}

func (c *Catalog) Games() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.maps))
	for g := range c.maps {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, byName := range c.maps {
		n += len(byName)
	}
	return n
}

// Close drops every template.
func (c *Catalog) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maps = make(map[string]map[string]*Map)
}

func (c *Catalog) filter(game string, keep func(*Map) bool) []*Map {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Map, 0, len(c.maps[game]))
	for _, m := range c.maps[game] {
		if keep(m) {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
