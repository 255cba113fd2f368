package quest

import (
	"fmt"
	"sort"
)

// ActorKind is the kind of world entity an actor role is bound to.
type ActorKind string

const (
	ActorPlace  ActorKind = "place"
	ActorMob    ActorKind = "mob"
	ActorPerson ActorKind = "person"
)

// ParseActorKind converts a string to an ActorKind.
func ParseActorKind(s string) (ActorKind, error) {
	switch ActorKind(s) {
	case ActorPlace, ActorMob, ActorPerson:
		return ActorKind(s), nil
	default:
		return "", fmt.Errorf("unknown actor kind %q", s)
	}
}

// Actor is a concrete world entity as handed out by the world registries.
// ID is opaque to the generator and stable across turns.
type Actor struct {
	Kind    ActorKind `json:"kind"`
	ID      int       `json:"id"`
	Name    string    `json:"name,omitempty"`
	Terrain string    `json:"terrain,omitempty"`
	PlaceID int       `json:"place_id,omitempty"` // persons only
}

// IsZero reports whether a is the empty actor.
func (a Actor) IsZero() bool {
	return a.Kind == ""
}

func (a Actor) String() string {
	if a.Name != "" {
		return fmt.Sprintf("%s#%d(%s)", a.Kind, a.ID, a.Name)
	}
	return fmt.Sprintf("%s#%d", a.Kind, a.ID)
}

// ActorSpec declares one role a quest kind binds during Initialize.
type ActorSpec struct {
	Role  string
	Kind  ActorKind
	Title string // Human readable role name, e.g. "hunting ground"
}

// Namespace is the quest-local actor binding table. Bindings are write-once.
type Namespace struct {
	actors map[string]Actor
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{actors: make(map[string]Actor)}
}

// Register binds role to actor.
func (n *Namespace) Register(role string, actor Actor) error {
	if role == "" || actor.IsZero() {
		return fmt.Errorf("%w: cannot bind role %q to %v", ErrMissingActor, role, actor)
	}
	if existing, ok := n.actors[role]; ok {
		return fmt.Errorf("%w: %q already bound to %v", ErrDuplicateBinding, role, existing)
	}
	n.actors[role] = actor
	return nil
}

// Get returns the actor bound to role.
func (n *Namespace) Get(role string) (Actor, bool) {
	a, ok := n.actors[role]
	return a, ok
}

// Has reports whether role is bound.
func (n *Namespace) Has(role string) bool {
	_, ok := n.actors[role]
	return ok
}

// Roles returns the bound role names in sorted order.
func (n *Namespace) Roles() []string {
	roles := make([]string, 0, len(n.actors))
	for role := range n.actors {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Len returns the number of bound roles.
func (n *Namespace) Len() int {
	return len(n.actors)
}

// Map returns a copy of the bindings.
func (n *Namespace) Map() map[string]Actor {
	out := make(map[string]Actor, len(n.actors))
	for role, a := range n.actors {
		out[role] = a
	}
	return out
}
