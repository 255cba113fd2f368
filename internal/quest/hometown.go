package quest

// Hometown events
const (
	EventHometownMove   = "move_to_hometown"
	EventHometownRest   = "rest"
	EventHometownNews   = "hometown_news"
	EventHometownReward = "get_reward"
)

// hometown sends the hero home for a rest.
type hometown struct{}

func (hometown) Kind() Kind    { return KindHometown }
func (hometown) Special() bool { return true }

func (hometown) Actors() []ActorSpec {
	return []ActorSpec{
		{Role: "place_end", Kind: ActorPlace, Title: "home town"},
	}
}

func (hometown) CanBeUsed(env Environment) bool {
	_, ok := env.KnowledgeBase().GetSpecial(FactHeroPlace)
	return ok
}

func (hometown) Requirements(env Environment) map[string]Requirement {
	home, ok := env.KnowledgeBase().GetSpecial(FactHeroPlace)
	if !ok {
		return nil
	}
	return map[string]Requirement{"place_end": {Fixed: &home}}
}

func (hometown) CreateLine(q *Quest, env Environment) (*Line, error) {
	return q.NewLine().
		Move("place_end", EventHometownMove).
		DoNothing(3, "place_end", EventHometownRest).
		Message("place_end", EventHometownNews).
		GetReward("", EventHometownReward).
		Build()
}
