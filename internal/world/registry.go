// Package world holds the places, mobs and persons quests are generated from, and
// the per-run Environment that hands them out.
package world

import (
	"fmt"
	"sort"
	"sync"
)

// Place is a town or wilderness location
type Place struct {
	ID      int
	Name    string
	Terrain string
}

// Mob is a creature kind and the terrains it lives in
type Mob struct {
	ID       int
	Name     string
	Terrains []string
}

// LivesIn reports whether the mob can be met on terrain
func (m *Mob) LivesIn(terrain string) bool {
	for _, t := range m.Terrains {
		if t == terrain {
			return true
		}
	}
	return false
}

// Person is an inhabitant of a place
type Person struct {
	ID         int
	Name       string
	PlaceID    int
	Profession string
}

// Registry holds every world entity. It is read-only once loaded and shared
// between generation runs.
type Registry struct {
	mu      sync.RWMutex
	places  map[int]*Place
	mobs    map[int]*Mob
	persons map[int]*Person
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		places:  make(map[int]*Place),
		mobs:    make(map[int]*Mob),
		persons: make(map[int]*Person),
	}
}

// AddPlace registers a place
func (r *Registry) AddPlace(p *Place) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID <= 0 {
		return fmt.Errorf("place %q: id must be positive", p.Name)
	}
	if _, exists := r.places[p.ID]; exists {
		return fmt.Errorf("place %d already registered", p.ID)
	}
	r.places[p.ID] = p
	return nil
}

// AddMob registers a mob
func (r *Registry) AddMob(m *Mob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID <= 0 {
		return fmt.Errorf("mob %q: id must be positive", m.Name)
	}
	if len(m.Terrains) == 0 {
		return fmt.Errorf("mob %d has no terrains", m.ID)
	}
	if _, exists := r.mobs[m.ID]; exists {
		return fmt.Errorf("mob %d already registered", m.ID)
	}
	r.mobs[m.ID] = m
	return nil
}

// AddPerson registers a person. Their place must already be registered.
func (r *Registry) AddPerson(p *Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID <= 0 {
		return fmt.Errorf("person %q: id must be positive", p.Name)
	}
	if _, exists := r.persons[p.ID]; exists {
		return fmt.Errorf("person %d already registered", p.ID)
	}
	if _, ok := r.places[p.PlaceID]; !ok {
		return fmt.Errorf("person %d lives in unknown place %d", p.ID, p.PlaceID)
	}
	r.persons[p.ID] = p
	return nil
}

// GetPlace returns a place by id
func (r *Registry) GetPlace(id int) (*Place, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.places[id]
	return p, ok
}

// GetMob returns a mob by id
func (r *Registry) GetMob(id int) (*Mob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mobs[id]
	return m, ok
}

// GetPerson returns a person by id
func (r *Registry) GetPerson(id int) (*Person, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.persons[id]
	return p, ok
}

// Places returns all places ordered by id
func (r *Registry) Places() []*Place {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Place, 0, len(r.places))
	for _, p := range r.places {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Mobs returns all mobs ordered by id
func (r *Registry) Mobs() []*Mob {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Mob, 0, len(r.mobs))
	for _, m := range r.mobs {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Persons returns all persons ordered by id
func (r *Registry) Persons() []*Person {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Person, 0, len(r.persons))
	for _, p := range r.persons {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Counts returns the number of places, mobs and persons
func (r *Registry) Counts() (places, mobs, persons int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.places), len(r.mobs), len(r.persons)
}
