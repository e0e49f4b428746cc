package mapdata

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Store is a read-only lookup of named maps. Each map gets a stable numeric
// id (by discovery order) used by the games table and the observer.
type Store struct {
	byName map[string]*Definition
	byID   map[int]*Definition
	ids    map[string]int
	active string
}

// NewStore builds a store from already-parsed definitions, assigning ids in
// the given order. Used by tests and by Discover.
func NewStore(defs ...*Definition) *Store {
	s := &Store{
		byName: make(map[string]*Definition, len(defs)),
		byID:   make(map[int]*Definition, len(defs)),
		ids:    make(map[string]int, len(defs)),
	}
	for i, def := range defs {
		id := i + 1
		s.byName[def.Name] = def
		s.byID[id] = def
		s.ids[def.Name] = id
	}
	return s
}

// Discover loads every map definition matching the glob pattern. Files are
// processed in sorted order so ids stay stable across restarts.
func Discover(pattern string) (*Store, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("discovering maps %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no map files match %q", pattern)
	}
	sort.Strings(files)

	defs := make([]*Definition, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading map file %s: %w", file, err)
		}
		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("map file %s: %w", file, err)
		}
		defs = append(defs, def)
		slog.Debug("map discovered", "name", def.Name, "file", file)
	}
	return NewStore(defs...), nil
}

// SetActive marks one map as the default for games created without an
// explicit map name.
func (s *Store) SetActive(name string) error {
	if _, ok := s.byName[name]; !ok {
		return fmt.Errorf("map not found: %q", name)
	}
	s.active = name
	return nil
}

// ByName returns the named map, or nil.
func (s *Store) ByName(name string) *Definition {
	return s.byName[name]
}

// ByID returns the map with the given numeric id, or nil.
func (s *Store) ByID(id int) *Definition {
	return s.byID[id]
}

// ID returns the numeric id of the named map, 0 if unknown.
func (s *Store) ID(name string) int {
	return s.ids[name]
}

// Active returns the active map, or nil when none was set.
func (s *Store) Active() *Definition {
	return s.byName[s.active]
}

// Names lists all known map names in id order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.byName))
	for id := 1; id <= len(s.byID); id++ {
		names = append(names, s.byID[id].Name)
	}
	return names
}
