// Package maps holds the catalog of playable maps. Arenas never share a Map
// value: the catalog hands out clones and each clone may carry its own loaded
// world.
package maps

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrInvalidMap = errors.New("invalid_map")

type Vector struct {
	X, Y, Z float64
}

// Descriptor is the on-disk JSON form of a map.
type Descriptor struct {
	File       string       `json:"file"`
	Game       string       `json:"game"`
	AllowTeams bool         `json:"allow_teams"`
	Builders   []string     `json:"builders"`
	Spawns     [][3]float64 `json:"spawns"`
	Lobby      *[3]float64  `json:"lobby,omitempty"`
	Spectator  *[3]float64  `json:"spectator,omitempty"`
}

type Map struct {
	name       string
	file       string
	game       string
	allowTeams bool
	builders   []string
	spawns     []Vector
	lobby      Vector
	spectator  Vector
	world      WorldHandle
}

// NewMap validates d. The map name is the file name without directory or
// archive extension.
func NewMap(d Descriptor) (*Map, error) {
	file := strings.TrimSpace(d.File)
	if file == "" {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidMap)
	}
	if strings.TrimSpace(d.Game) == "" {
		return nil, fmt.Errorf("%w: %s has no game", ErrInvalidMap, file)
	}
	name := strings.TrimSuffix(filepath.Base(file), ".zip")
	m := &Map{
		name:       name,
		file:       file,
		game:       d.Game,
		allowTeams: d.AllowTeams,
		builders:   append([]string(nil), d.Builders...),
		spawns:     make([]Vector, 0, len(d.Spawns)),
	}
	for _, s := range d.Spawns {
		m.spawns = append(m.spawns, Vector{X: s[0], Y: s[1], Z: s[2]})
	}
	if d.Lobby != nil {
		m.lobby = Vector{X: d.Lobby[0], Y: d.Lobby[1], Z: d.Lobby[2]}
	}
	if d.Spectator != nil {
		m.spectator = Vector{X: d.Spectator[0], Y: d.Spectator[1], Z: d.Spectator[2]}
	}
	return m, nil
}

func (m *Map) Name() string      { return m.name }
func (m *Map) File() string      { return m.file }
func (m *Map) Game() string      { return m.game }
func (m *Map) AllowTeams() bool  { return m.allowTeams }
func (m *Map) SpawnCount() int   { return len(m.spawns) }
func (m *Map) Lobby() Vector     { return m.lobby }
func (m *Map) Spectator() Vector { return m.spectator }

func (m *Map) Builders() []string {
	return append([]string(nil), m.builders...)
}

func (m *Map) Spawns() []Vector {
	return append([]Vector(nil), m.spawns...)
}

// Spawn returns spawn point i, wrapping around when there are more players
// than spawns.
func (m *Map) Spawn(i int) (Vector, bool) {
	if len(m.spawns) == 0 || i < 0 {
		return Vector{}, false
	}
	return m.spawns[i%len(m.spawns)], true
}

func (m *Map) IsBuilder(player string) bool {
	for _, b := range m.builders {
		if strings.EqualFold(b, player) {
			return true
		}
	}
	return false
}

// World returns the loaded world bound to this map, or nil.
func (m *Map) World() WorldHandle { return m.world }

// BindWorld attaches h and returns whatever was bound before.
func (m *Map) BindWorld(h WorldHandle) WorldHandle {
	old := m.world
	m.world = h
	return old
}

// Clone copies the map without its world binding.
func (m *Map) Clone() *Map {
	c := *m
	c.builders = append([]string(nil), m.builders...)
	c.spawns = append([]Vector(nil), m.spawns...)
	c.world = nil
	return &c
}
