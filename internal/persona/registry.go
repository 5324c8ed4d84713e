package persona

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry holds the available personas. The built-ins are always present;
// customs from a personas file are merged over them by ID.
type Registry struct {
	mu       sync.RWMutex
	personas map[string]Persona
}

// NewRegistry creates a registry seeded with the built-in personas.
func NewRegistry() *Registry {
	return &Registry{personas: BuiltIn()}
}

// personasFile is the on-disk shape of a custom personas catalog.
type personasFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadFile merges the personas from a YAML catalog into the registry.
// Entries with an ID matching a built-in replace it. An empty path is a
// no-op.
func (r *Registry) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read personas file: %w", err)
	}

	var file personasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse personas file: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range file.Personas {
		if p.ID == "" {
			continue
		}
		r.personas[p.ID] = p
	}
	return nil
}

// Register adds or replaces a persona.
func (r *Registry) Register(p Persona) {
	if p.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.personas[p.ID] = p
}

// Get retrieves a persona by ID.
func (r *Registry) Get(id string) (Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.personas[id]
	return p, ok
}

// Random picks a uniformly random persona. ok is false when the registry is
// empty.
func (r *Registry) Random() (Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.personas) == 0 {
		return Persona{}, false
	}
	ids := make([]string, 0, len(r.personas))
	for id := range r.personas {
		ids = append(ids, id)
	}
	return r.personas[ids[rand.Intn(len(ids))]], true
}

// List returns all personas sorted by ID.
func (r *Registry) List() []Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Persona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of registered personas.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.personas)
}
