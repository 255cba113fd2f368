package world

import (
	"fmt"

	"github.com/paniker63/the-tale/internal/quest"
)

// KnowledgeBase holds the facts one generation run knows about the hero
type KnowledgeBase struct {
	facts map[string]quest.Actor
}

// NewKnowledgeBase creates an empty knowledge base
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{facts: make(map[string]quest.Actor)}
}

// Set records a fact, replacing any previous value
func (kb *KnowledgeBase) Set(key string, actor quest.Actor) {
	kb.facts[key] = actor
}

// GetSpecial returns the actor recorded under key
func (kb *KnowledgeBase) GetSpecial(key string) (quest.Actor, bool) {
	a, ok := kb.facts[key]
	return a, ok
}

// Len returns the number of facts
func (kb *KnowledgeBase) Len() int {
	return len(kb.facts)
}

// HeroFacts identifies the world entities a hero is attached to. Zero means unknown.
type HeroFacts struct {
	PrefMobID int    `json:"pref_mob,omitempty"`
	Terrain   string `json:"terrain,omitempty"` // Terrain the hero hunts the mob on
	PlaceID   int    `json:"place,omitempty"`
	FriendID  int    `json:"friend,omitempty"`
}

// Knowledge resolves hero facts against the registry
func (r *Registry) Knowledge(h HeroFacts) (*KnowledgeBase, error) {
	kb := NewKnowledgeBase()

	if h.PrefMobID != 0 {
		m, ok := r.GetMob(h.PrefMobID)
		if !ok {
			return nil, fmt.Errorf("preferred mob %d not found", h.PrefMobID)
		}
		terrain := h.Terrain
		if terrain == "" {
			terrain = m.Terrains[0]
		} else if !m.LivesIn(terrain) {
			return nil, fmt.Errorf("mob %d does not live in %s", m.ID, terrain)
		}
		kb.Set(quest.FactHeroPrefMob, mobActor(m, terrain))
	}

	if h.PlaceID != 0 {
		p, ok := r.GetPlace(h.PlaceID)
		if !ok {
			return nil, fmt.Errorf("hero place %d not found", h.PlaceID)
		}
		kb.Set(quest.FactHeroPlace, placeActor(p))
	}

	if h.FriendID != 0 {
		p, ok := r.GetPerson(h.FriendID)
		if !ok {
			return nil, fmt.Errorf("hero friend %d not found", h.FriendID)
		}
		kb.Set(quest.FactHeroFriend, personActor(p))
	}

	return kb, nil
}

func placeActor(p *Place) quest.Actor {
	return quest.Actor{Kind: quest.ActorPlace, ID: p.ID, Name: p.Name, Terrain: p.Terrain}
}

func mobActor(m *Mob, terrain string) quest.Actor {
	return quest.Actor{Kind: quest.ActorMob, ID: m.ID, Name: m.Name, Terrain: terrain}
}

func personActor(p *Person) quest.Actor {
	return quest.Actor{Kind: quest.ActorPerson, ID: p.ID, Name: p.Name, PlaceID: p.PlaceID}
}
