package quest

import (
	"errors"
	"fmt"
)

// Kind identifies a quest variant
type Kind string

const (
	KindHunt       Kind = "hunt"        // Hunt the hero's preferred mob
	KindHometown   Kind = "hometown"    // Visit the hero's home town
	KindDelivery   Kind = "delivery"    // Carry a parcel between two persons
	KindCaravan    Kind = "caravan"     // Escort a caravan between two places
	KindSpying     Kind = "spying"      // Watch a person and report back
	KindHelpFriend Kind = "help_friend" // Do a job for the hero's friend
)

// State is the lifecycle state of a quest instance
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitialized   State = "initialized"
	StateLineBuilt     State = "line_built"
)

// Knowledge base keys
const (
	FactHeroPrefMob = "hero_pref_mob"
	FactHeroPlace   = "hero_place"
	FactHeroFriend  = "hero_friend"
)

// KnowledgeBase answers world-fact queries. Missing facts are reported with false,
// never with an error.
type KnowledgeBase interface {
	GetSpecial(key string) (Actor, bool)
}

// Environment is the generation context quests bind their actors from. One
// Environment serves exactly one generation run.
type Environment interface {
	KnowledgeBase() KnowledgeBase

	// NewPlace, NewMob and NewPerson allocate an entity not yet handed out in this
	// run. An empty terrain or a zero placeID means unconstrained. They return
	// ErrConstraintUnsatisfiable when no entity qualifies.
	NewPlace(terrain string) (Actor, error)
	NewMob(terrain string) (Actor, error)
	NewPerson(placeID int) (Actor, error)

	// Lookup resolves a known entity and reserves it so later allocations skip it.
	Lookup(kind ActorKind, id int) (Actor, error)

	// Intn and Read expose the run's seeded randomness.
	Intn(n int) int
	Read(p []byte) (int, error)

	// Mark returns a checkpoint of the allocations made so far. Rollback releases
	// every entity allocated or looked up after mark. Randomness is not rewound.
	Mark() int
	Rollback(mark int)
}

// Requirement constrains how Initialize fills a role when the caller gave no
// override. At most one of Fixed, HomeOf and the allocation constraints applies, in
// that order.
type Requirement struct {
	Fixed   *Actor // Bind exactly this entity
	HomeOf  string // Bind the home place of the person bound to this role
	Terrain string // Places and mobs: required terrain
	At      string // Persons: role of the place they must live in
}

// Variant is the behaviour of one quest kind.
type Variant interface {
	Kind() Kind
	// Special variants are gated by the environment and picked by priority instead
	// of by weight.
	Special() bool
	// Actors is the declarative role table, bound in order.
	Actors() []ActorSpec
	// CanBeUsed must not modify env.
	CanBeUsed(env Environment) bool
	Requirements(env Environment) map[string]Requirement
	CreateLine(q *Quest, env Environment) (*Line, error)
}

// Quest is one generated quest instance.
type Quest struct {
	ID        string
	Kind      Kind
	Special   bool
	State     State
	Actors    *Namespace
	Line      *Line
	SubQuests []*Quest

	variant  Variant
	registry *Registry
}

func newQuest(v Variant, r *Registry) *Quest {
	return &Quest{
		Kind:     v.Kind(),
		Special:  v.Special(),
		State:    StateUninitialized,
		Actors:   NewNamespace(),
		variant:  v,
		registry: r,
	}
}

// CanBeUsed reports whether the quest's kind applies to env.
func (q *Quest) CanBeUsed(env Environment) bool {
	return q.variant.CanBeUsed(env)
}

// Roles returns the quest kind's declared actor table.
func (q *Quest) Roles() []ActorSpec {
	return q.variant.Actors()
}

// Initialize binds every declared role, preferring overrides over allocations.
// Overrides for roles the kind does not declare are rejected.
func (q *Quest) Initialize(id string, env Environment, overrides map[string]Actor) error {
	if q.State != StateUninitialized {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, q.ID)
	}
	if id == "" {
		return errors.New("quest identifier is required")
	}

	specs := q.variant.Actors()
	declared := make(map[string]bool, len(specs))
	for _, spec := range specs {
		declared[spec.Role] = true
	}
	for role := range overrides {
		if !declared[role] {
			return fmt.Errorf("%w: %q is not an actor of %s quests", ErrUnknownRole, role, q.Kind)
		}
	}

	reqs := q.variant.Requirements(env)
	for _, spec := range specs {
		actor, err := q.resolve(spec, reqs[spec.Role], overrides, env)
		if err != nil {
			return fmt.Errorf("failed to bind %s for %s quest: %w", spec.Role, q.Kind, err)
		}
		if err := q.Actors.Register(spec.Role, actor); err != nil {
			return err
		}
	}

	q.ID = id
	q.State = StateInitialized
	return nil
}

// resolve picks the actor for one role, dispatching on the role's kind.
func (q *Quest) resolve(spec ActorSpec, req Requirement, overrides map[string]Actor, env Environment) (Actor, error) {
	if actor, ok := overrides[spec.Role]; ok {
		if actor.Kind != spec.Kind {
			return Actor{}, fmt.Errorf("%w: override is a %s, want %s", ErrActorKindMismatch, actor.Kind, spec.Kind)
		}
		return actor, nil
	}

	if req.Fixed != nil {
		if req.Fixed.Kind != spec.Kind {
			return Actor{}, fmt.Errorf("%w: fixed actor is a %s, want %s", ErrActorKindMismatch, req.Fixed.Kind, spec.Kind)
		}
		return *req.Fixed, nil
	}

	if req.HomeOf != "" {
		person, ok := q.Actors.Get(req.HomeOf)
		if !ok {
			return Actor{}, fmt.Errorf("%w: home of %q", ErrUnboundActor, req.HomeOf)
		}
		return env.Lookup(ActorPlace, person.PlaceID)
	}

	switch spec.Kind {
	case ActorPlace:
		return env.NewPlace(req.Terrain)
	case ActorMob:
		return env.NewMob(req.Terrain)
	case ActorPerson:
		placeID := 0
		if req.At != "" {
			place, ok := q.Actors.Get(req.At)
			if !ok {
				return Actor{}, fmt.Errorf("%w: person location %q", ErrUnboundActor, req.At)
			}
			placeID = place.ID
		}
		return env.NewPerson(placeID)
	default:
		return Actor{}, fmt.Errorf("%w: unknown actor kind %q", ErrInvalidCommand, spec.Kind)
	}
}

// CreateLine builds the quest line. It must be called after Initialize and only once.
func (q *Quest) CreateLine(env Environment) error {
	switch q.State {
	case StateUninitialized:
		return fmt.Errorf("%w: %s quest", ErrNotInitialized, q.Kind)
	case StateLineBuilt:
		return fmt.Errorf("%w: %s", ErrLineAlreadyBuilt, q.ID)
	}

	line, err := q.variant.CreateLine(q, env)
	if err != nil {
		return fmt.Errorf("failed to create %s line: %w", q.Kind, err)
	}
	if err := q.checkLine(line); err != nil {
		return err
	}

	q.Line = line
	q.State = StateLineBuilt
	return nil
}

// NewLine returns a builder bound to the quest's namespace.
func (q *Quest) NewLine() *LineBuilder {
	return NewLineBuilder(q.Actors)
}

// checkLine enforces the structural invariants: non-empty, every referenced role
// bound, every sub-quest reference registered and complete.
func (q *Quest) checkLine(line *Line) error {
	if line == nil || line.Len() == 0 {
		return fmt.Errorf("%w: %s quest %s", ErrEmptyLine, q.Kind, q.ID)
	}
	for i, c := range line.commands {
		for _, role := range c.Actors() {
			if !q.Actors.Has(role) {
				return fmt.Errorf("%w: %q in %s command %d of %s", ErrUnboundActor, role, c.Type(), i, q.ID)
			}
		}
		if sub, ok := c.(SubQuest); ok {
			child := q.subQuest(sub.Quest())
			if child == nil {
				return fmt.Errorf("%w: sub-quest %q of %s is not registered", ErrUnboundActor, sub.Quest(), q.ID)
			}
			if child.State != StateLineBuilt {
				return fmt.Errorf("%w: sub-quest %q", ErrNotInitialized, sub.Quest())
			}
		}
	}
	return nil
}

func (q *Quest) subQuest(id string) *Quest {
	for _, sq := range q.SubQuests {
		if sq.ID == id {
			return sq
		}
	}
	return nil
}

// Find returns the quest with the given id, searching q and its sub-quests.
func (q *Quest) Find(id string) *Quest {
	if q.ID == id {
		return q
	}
	for _, sq := range q.SubQuests {
		if found := sq.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Spawn generates a sub-quest of one of the given kinds and registers it on q.
// Overrides for roles the chosen kind does not declare are dropped. Kinds are tried
// in an order drawn from env; a kind failing with ErrConstraintUnsatisfiable gives way
// to the next one.
func (q *Quest) Spawn(env Environment, kinds []Kind, overrides map[string]Actor) (*Quest, error) {
	if q.registry == nil {
		return nil, fmt.Errorf("%w: %s quest has no registry", ErrUnknownKind, q.Kind)
	}

	candidates := make([]Kind, 0, len(kinds))
	for _, kind := range kinds {
		v, ok := q.registry.variant(kind)
		if !ok || !v.CanBeUsed(env) {
			continue
		}
		candidates = append(candidates, kind)
	}

	id := fmt.Sprintf("%s.%d", q.ID, len(q.SubQuests)+1)
	for len(candidates) > 0 {
		i := env.Intn(len(candidates))
		kind := candidates[i]
		candidates = append(candidates[:i], candidates[i+1:]...)

		v, _ := q.registry.variant(kind)
		sub, err := q.registry.instantiate(kind, id, env, filterOverrides(v, overrides))
		if err == nil {
			q.SubQuests = append(q.SubQuests, sub)
			return sub, nil
		}
		if IsFatal(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: no sub-quest for %s", ErrConstraintUnsatisfiable, q.ID)
}

func filterOverrides(v Variant, overrides map[string]Actor) map[string]Actor {
	if len(overrides) == 0 {
		return nil
	}
	out := make(map[string]Actor)
	for _, spec := range v.Actors() {
		if a, ok := overrides[spec.Role]; ok {
			out[spec.Role] = a
		}
	}
	return out
}

// HasSubQuests returns true if the quest registered nested quests
func (q *Quest) HasSubQuests() bool {
	return len(q.SubQuests) > 0
}
