package world

import (
	"fmt"
	"math/rand"
	"sort"
	"sync/atomic"

	"github.com/paniker63/the-tale/internal/quest"
)

// Environment serves one generation run: it hands out world entities at most once
// and owns the run's seeded randomness. It must not be shared between goroutines.
type Environment struct {
	registry  *Registry
	kb        *KnowledgeBase
	seed      int64
	rng       *rand.Rand
	allocated map[quest.ActorKind]map[int]bool
	order     []quest.Actor // allocation order
	busy      atomic.Bool
}

// NewEnvironment creates an environment over registry. The same registry, facts and
// seed always produce the same allocations.
func NewEnvironment(registry *Registry, kb *KnowledgeBase, seed int64) *Environment {
	if kb == nil {
		kb = NewKnowledgeBase()
	}
	return &Environment{
		registry: registry,
		kb:       kb,
		seed:     seed,
		rng:      rand.New(rand.NewSource(seed)),
		allocated: map[quest.ActorKind]map[int]bool{
			quest.ActorPlace:  {},
			quest.ActorMob:    {},
			quest.ActorPerson: {},
		},
	}
}

// enter panics when another goroutine is inside the environment
func (e *Environment) enter() func() {
	if !e.busy.CompareAndSwap(false, true) {
		panic("world: environment entered concurrently")
	}
	return func() { e.busy.Store(false) }
}

// KnowledgeBase returns the run's facts
func (e *Environment) KnowledgeBase() quest.KnowledgeBase {
	return e.kb
}

// Seed returns the seed the environment was created with
func (e *Environment) Seed() int64 {
	return e.seed
}

// NewPlace allocates a place not handed out yet, optionally on terrain
func (e *Environment) NewPlace(terrain string) (quest.Actor, error) {
	defer e.enter()()

	var candidates []*Place
	for _, p := range e.registry.Places() {
		if e.allocated[quest.ActorPlace][p.ID] {
			continue
		}
		if terrain != "" && p.Terrain != terrain {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return quest.Actor{}, fmt.Errorf("%w: no free place (terrain %q)", quest.ErrConstraintUnsatisfiable, terrain)
	}
	return e.take(placeActor(candidates[e.rng.Intn(len(candidates))])), nil
}

// NewMob allocates a mob not handed out yet, optionally living on terrain
func (e *Environment) NewMob(terrain string) (quest.Actor, error) {
	defer e.enter()()

	var candidates []*Mob
	for _, m := range e.registry.Mobs() {
		if e.allocated[quest.ActorMob][m.ID] {
			continue
		}
		if terrain != "" && !m.LivesIn(terrain) {
			continue
		}
		candidates = append(candidates, m)
	}
	if len(candidates) == 0 {
		return quest.Actor{}, fmt.Errorf("%w: no free mob (terrain %q)", quest.ErrConstraintUnsatisfiable, terrain)
	}

	m := candidates[e.rng.Intn(len(candidates))]
	if terrain == "" {
		terrain = m.Terrains[0]
	}
	return e.take(mobActor(m, terrain)), nil
}

// NewPerson allocates a person not handed out yet, optionally living in placeID
func (e *Environment) NewPerson(placeID int) (quest.Actor, error) {
	defer e.enter()()

	var candidates []*Person
	for _, p := range e.registry.Persons() {
		if e.allocated[quest.ActorPerson][p.ID] {
			continue
		}
		if placeID != 0 && p.PlaceID != placeID {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return quest.Actor{}, fmt.Errorf("%w: no free person (place %d)", quest.ErrConstraintUnsatisfiable, placeID)
	}
	return e.take(personActor(candidates[e.rng.Intn(len(candidates))])), nil
}

// Lookup resolves a known entity and reserves it for the rest of the run
func (e *Environment) Lookup(kind quest.ActorKind, id int) (quest.Actor, error) {
	defer e.enter()()

	var actor quest.Actor
	switch kind {
	case quest.ActorPlace:
		p, ok := e.registry.GetPlace(id)
		if !ok {
			return quest.Actor{}, fmt.Errorf("%w: place %d not found", quest.ErrConstraintUnsatisfiable, id)
		}
		actor = placeActor(p)
	case quest.ActorMob:
		m, ok := e.registry.GetMob(id)
		if !ok {
			return quest.Actor{}, fmt.Errorf("%w: mob %d not found", quest.ErrConstraintUnsatisfiable, id)
		}
		actor = mobActor(m, m.Terrains[0])
	case quest.ActorPerson:
		p, ok := e.registry.GetPerson(id)
		if !ok {
			return quest.Actor{}, fmt.Errorf("%w: person %d not found", quest.ErrConstraintUnsatisfiable, id)
		}
		actor = personActor(p)
	default:
		return quest.Actor{}, fmt.Errorf("unknown actor kind %q", kind)
	}

	if e.allocated[kind][id] {
		return actor, nil
	}
	return e.take(actor), nil
}

func (e *Environment) take(a quest.Actor) quest.Actor {
	e.allocated[a.Kind][a.ID] = true
	e.order = append(e.order, a)
	return a
}

// Mark returns the number of entities allocated so far
func (e *Environment) Mark() int {
	defer e.enter()()
	return len(e.order)
}

// Rollback releases the entities allocated after mark, newest first
func (e *Environment) Rollback(mark int) {
	defer e.enter()()

	if mark < 0 {
		mark = 0
	}
	for len(e.order) > mark {
		a := e.order[len(e.order)-1]
		delete(e.allocated[a.Kind], a.ID)
		e.order = e.order[:len(e.order)-1]
	}
}

// Intn returns a seeded number in [0, n)
func (e *Environment) Intn(n int) int {
	defer e.enter()()
	return e.rng.Intn(n)
}

// Read fills p with seeded bytes
func (e *Environment) Read(p []byte) (int, error) {
	defer e.enter()()
	return e.rng.Read(p)
}

// Allocated returns every entity handed out so far, in allocation order
func (e *Environment) Allocated() []quest.Actor {
	defer e.enter()()
	return append([]quest.Actor(nil), e.order...)
}

// IsAllocated reports whether the entity was handed out in this run
func (e *Environment) IsAllocated(kind quest.ActorKind, id int) bool {
	defer e.enter()()
	return e.allocated[kind][id]
}

// AllocatedIDs returns the handed out ids of kind in ascending order
func (e *Environment) AllocatedIDs(kind quest.ActorKind) []int {
	defer e.enter()()

	ids := make([]int, 0, len(e.allocated[kind]))
	for id := range e.allocated[kind] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

var _ quest.Environment = (*Environment)(nil)
