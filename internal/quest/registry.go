package quest

import (
	"fmt"
	"sync"
)

// Factory creates the variant for one quest kind
type Factory func() Variant

// Registry holds the quest kinds available to the selector
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]Factory // kind -> factory
	order     []Kind           // registration order
	priority  []Kind           // special kinds, first match wins
	weights   map[Kind]int     // non-special kind -> draw weight
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Kind]Factory),
		weights:   make(map[Kind]int),
	}
}

// DefaultRegistry returns a registry with every built-in kind, hunts before
// homecomings, and the default weight table.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, f := range []Factory{
		func() Variant { return hunt{} },
		func() Variant { return hometown{} },
		func() Variant { return delivery{} },
		func() Variant { return caravan{} },
		func() Variant { return spying{} },
		func() Variant { return helpFriend{} },
	} {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	if err := r.LoadFromConfig(DefaultSelectionConfig()); err != nil {
		panic(err)
	}
	return r
}

// Register adds a quest kind
func (r *Registry) Register(f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := f().Kind()
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("quest kind %q already registered", kind)
	}
	r.factories[kind] = f
	r.order = append(r.order, kind)
	return nil
}

// SetPriority sets the order in which special kinds are tried. Special kinds left
// out are tried afterwards in registration order.
func (r *Registry) SetPriority(kinds ...Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[Kind]bool)
	for _, kind := range kinds {
		f, ok := r.factories[kind]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
		if !f().Special() {
			return fmt.Errorf("quest kind %q is not special and cannot be prioritized", kind)
		}
		if seen[kind] {
			return fmt.Errorf("quest kind %q listed twice in priority", kind)
		}
		seen[kind] = true
	}
	r.priority = append([]Kind(nil), kinds...)
	return nil
}

// SetWeight sets the draw weight of a non-special kind. Zero disables the kind.
func (r *Registry) SetWeight(kind Kind, weight int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.factories[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if f().Special() {
		return fmt.Errorf("quest kind %q is special and is not drawn by weight", kind)
	}
	if weight < 0 {
		return fmt.Errorf("weight for %q must not be negative, got %d", kind, weight)
	}
	r.weights[kind] = weight
	return nil
}

// Priority returns every special kind in the order the selector tries them
func (r *Registry) Priority() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]Kind(nil), r.priority...)
	listed := make(map[Kind]bool, len(out))
	for _, kind := range out {
		listed[kind] = true
	}
	for _, kind := range r.order {
		if !listed[kind] && r.factories[kind]().Special() {
			out = append(out, kind)
		}
	}
	return out
}

// Weighted returns the non-special kinds with a positive weight, in registration order
func (r *Registry) Weighted() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Kind, 0, len(r.order))
	for _, kind := range r.order {
		if !r.factories[kind]().Special() && r.weights[kind] > 0 {
			out = append(out, kind)
		}
	}
	return out
}

// Weight returns the draw weight of kind
func (r *Registry) Weight(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.weights[kind]
}

// Kinds returns every registered kind in registration order
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Kind(nil), r.order...)
}

// Count returns the number of registered kinds
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// New creates an uninitialized quest of the given kind
func (r *Registry) New(kind Kind) (*Quest, error) {
	v, ok := r.variant(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return newQuest(v, r), nil
}

func (r *Registry) variant(kind Kind) (Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[kind]
	if !ok {
		return nil, false
	}
	return f(), true
}

// instantiate drives a new quest of kind through Initialize and CreateLine. A
// failed attempt releases everything it allocated from env.
func (r *Registry) instantiate(kind Kind, id string, env Environment, overrides map[string]Actor) (*Quest, error) {
	q, err := r.New(kind)
	if err != nil {
		return nil, err
	}
	mark := env.Mark()
	if err := q.Initialize(id, env, overrides); err != nil {
		env.Rollback(mark)
		return nil, err
	}
	if err := q.CreateLine(env); err != nil {
		env.Rollback(mark)
		return nil, err
	}
	return q, nil
}

// LoadFromConfig applies a selection table. An invalid priority list is rejected as
// a whole and the previous order stays. Invalid weight entries are skipped one by
// one. The first error is returned after every entry has been tried.
func (r *Registry) LoadFromConfig(config *SelectionConfig) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	priority := make([]Kind, 0, len(config.Priority))
	for _, name := range config.Priority {
		priority = append(priority, Kind(name))
	}
	keep(r.SetPriority(priority...))

	for name, weight := range config.Weights {
		keep(r.SetWeight(Kind(name), weight))
	}
	return firstErr
}

// LoadFromYAML applies a selection table read from a YAML file
func (r *Registry) LoadFromYAML(filename string) error {
	config, err := LoadSelectionFromYAML(filename)
	if err != nil {
		return err
	}
	return r.LoadFromConfig(config)
}
