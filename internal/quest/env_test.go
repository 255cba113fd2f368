package quest

import (
	"fmt"
	"testing"
)

// fakeKB is a map-backed knowledge base
type fakeKB map[string]Actor

func (kb fakeKB) GetSpecial(key string) (Actor, bool) {
	a, ok := kb[key]
	return a, ok
}

// fakeEnv hands out entities in declaration order and replays scripted rolls
type fakeEnv struct {
	kb      fakeKB
	places  []Actor
	mobs    []Actor
	persons []Actor
	used    map[ActorKind]map[int]bool
	order   []Actor
	rolls   []int
	counter byte
}

func newFakeEnv(kb fakeKB) *fakeEnv {
	if kb == nil {
		kb = fakeKB{}
	}
	return &fakeEnv{
		kb: kb,
		places: []Actor{
			{Kind: ActorPlace, ID: 1, Name: "Ashford", Terrain: "plains"},
			{Kind: ActorPlace, ID: 2, Name: "Brackenwood", Terrain: "forest"},
			{Kind: ActorPlace, ID: 3, Name: "Dunmere", Terrain: "forest"},
			{Kind: ActorPlace, ID: 4, Name: "Stonegate", Terrain: "mountains"},
		},
		mobs: []Actor{
			{Kind: ActorMob, ID: 7, Name: "wolf", Terrain: "forest"},
			{Kind: ActorMob, ID: 8, Name: "goblin", Terrain: "mountains"},
		},
		persons: []Actor{
			{Kind: ActorPerson, ID: 11, Name: "Alda", PlaceID: 1},
			{Kind: ActorPerson, ID: 12, Name: "Bram", PlaceID: 2},
			{Kind: ActorPerson, ID: 13, Name: "Cora", PlaceID: 3},
			{Kind: ActorPerson, ID: 14, Name: "Dorn", PlaceID: 4},
		},
		used: map[ActorKind]map[int]bool{ActorPlace: {}, ActorMob: {}, ActorPerson: {}},
	}
}

func (e *fakeEnv) KnowledgeBase() KnowledgeBase { return e.kb }

func (e *fakeEnv) pick(pool []Actor, ok func(Actor) bool) (Actor, error) {
	for _, a := range pool {
		if !e.used[a.Kind][a.ID] && ok(a) {
			e.used[a.Kind][a.ID] = true
			e.order = append(e.order, a)
			return a, nil
		}
	}
	return Actor{}, fmt.Errorf("%w: fake pool exhausted", ErrConstraintUnsatisfiable)
}

func (e *fakeEnv) NewPlace(terrain string) (Actor, error) {
	return e.pick(e.places, func(a Actor) bool { return terrain == "" || a.Terrain == terrain })
}

func (e *fakeEnv) NewMob(terrain string) (Actor, error) {
	return e.pick(e.mobs, func(a Actor) bool { return terrain == "" || a.Terrain == terrain })
}

func (e *fakeEnv) NewPerson(placeID int) (Actor, error) {
	return e.pick(e.persons, func(a Actor) bool { return placeID == 0 || a.PlaceID == placeID })
}

func (e *fakeEnv) Lookup(kind ActorKind, id int) (Actor, error) {
	var pool []Actor
	switch kind {
	case ActorPlace:
		pool = e.places
	case ActorMob:
		pool = e.mobs
	case ActorPerson:
		pool = e.persons
	}
	for _, a := range pool {
		if a.ID == id {
			if !e.used[kind][id] {
				e.used[kind][id] = true
				e.order = append(e.order, a)
			}
			return a, nil
		}
	}
	return Actor{}, fmt.Errorf("%w: %s %d", ErrConstraintUnsatisfiable, kind, id)
}

func (e *fakeEnv) Intn(n int) int {
	if len(e.rolls) == 0 {
		return 0
	}
	r := e.rolls[0]
	e.rolls = e.rolls[1:]
	return r % n
}

func (e *fakeEnv) Read(p []byte) (int, error) {
	for i := range p {
		e.counter++
		p[i] = e.counter
	}
	return len(p), nil
}

func (e *fakeEnv) Mark() int { return len(e.order) }

func (e *fakeEnv) Rollback(mark int) {
	for _, a := range e.order[mark:] {
		delete(e.used[a.Kind], a.ID)
	}
	e.order = e.order[:mark]
}

// mustBuild drives a quest of kind through Initialize and CreateLine
func mustBuild(t *testing.T, r *Registry, kind Kind, env Environment) *Quest {
	t.Helper()
	q, err := r.instantiate(kind, "q1", env, nil)
	if err != nil {
		t.Fatalf("instantiate %s: %v", kind, err)
	}
	return q
}
