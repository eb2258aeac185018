package world

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store owns every defined world, keyed case-insensitively by name.
type Store struct {
	worlds map[string]*World
	order  []string // definition order of lowercased names
}

// NewStore returns an empty world store.
func NewStore() *Store {
	return &Store{worlds: make(map[string]*World)}
}

func keyOf(name string) string { return strings.ToLower(name) }

// Upsert defines a world, replacing any existing world of the same name.
func (s *Store) Upsert(w *World) {
	k := keyOf(w.Name)
	if _, exists := s.worlds[k]; !exists {
		s.order = append(s.order, k)
	}
	s.worlds[k] = w
}

// Get returns the world named name.
func (s *Store) Get(name string) (*World, bool) {
	w, ok := s.worlds[keyOf(name)]
	return w, ok
}

// Remove forgets a world. Returns false if it was not defined.
func (s *Store) Remove(name string) bool {
	k := keyOf(name)
	if _, ok := s.worlds[k]; !ok {
		return false
	}
	delete(s.worlds, k)
	for i, o := range s.order {
		if o == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of defined worlds.
func (s *Store) Len() int { return len(s.worlds) }

// All returns the worlds in definition order.
func (s *Store) All() []*World {
	out := make([]*World, 0, len(s.worlds))
	for _, k := range s.order {
		out = append(out, s.worlds[k])
	}
	return out
}

// First returns the first defined non-temp world, used as the default
// world at startup.
func (s *Store) First() (*World, bool) {
	for _, k := range s.order {
		if w := s.worlds[k]; !w.Temp {
			return w, true
		}
	}
	return nil, false
}

// AddTemp registers a temporary world for a bare host/port connect. The
// name is host:port; an existing world of that name is reused instead.
func (s *Store) AddTemp(host, port string) *World {
	name := host + ":" + port
	if w, ok := s.Get(name); ok {
		return w
	}
	w := &World{Name: name, Host: host, Port: port, Temp: true}
	s.Upsert(w)
	return w
}

// DropTempsFor garbage-collects temp worlds on disconnect.
func (s *Store) DropTempsFor(name string) {
	if w, ok := s.Get(name); ok && w.Temp {
		s.Remove(w.Name)
	}
}

// worldsFile is the YAML persistence shape.
type worldsFile struct {
	Worlds []*World `yaml:"Worlds"`
}

// LoadFile reads worlds from a YAML file into the store.
func (s *Store) LoadFile(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = fh.Close()
	}()
	var wf worldsFile
	if err := yaml.NewDecoder(fh).Decode(&wf); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for _, w := range wf.Worlds {
		if w.Name == "" {
			continue
		}
		s.Upsert(w)
	}
	return nil
}

// SaveFile writes all non-temp worlds to a YAML file.
func (s *Store) SaveFile(path string) error {
	var wf worldsFile
	for _, w := range s.All() {
		if !w.Temp {
			wf.Worlds = append(wf.Worlds, w)
		}
	}
	data, err := yaml.Marshal(&wf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// SaveScript writes an executable config of /addworld commands, sorted by
// name, sufficient to reconstruct the store with /load.
func (s *Store) SaveScript(path string) error {
	worlds := s.All()
	sort.Slice(worlds, func(i, j int) bool { return worlds[i].Name < worlds[j].Name })
	var sb strings.Builder
	for _, w := range worlds {
		if w.Temp {
			continue
		}
		sb.WriteString(w.ToAddworld())
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o600)
}
