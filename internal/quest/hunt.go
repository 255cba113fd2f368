package quest

// Hunt events
const (
	EventHuntMoveToQuest = "move_to_quest"
	EventHuntTrack       = "track"
	EventHuntHunt        = "hunt"
	EventHuntMoveToCity  = "move_to_city"
	EventHuntGetReward   = "get_reward"
)

// huntRounds is how many track-and-fight rounds a hunt has.
const huntRounds = 3

// hunt sends the hero after their preferred mob in a place with the mob's terrain.
type hunt struct{}

func (hunt) Kind() Kind    { return KindHunt }
func (hunt) Special() bool { return true }

func (hunt) Actors() []ActorSpec {
	// place_end is allocated before place_start so the terrain constraint gets the
	// first pick.
	return []ActorSpec{
		{Role: "mob", Kind: ActorMob, Title: "quarry"},
		{Role: "place_end", Kind: ActorPlace, Title: "hunting ground"},
		{Role: "place_start", Kind: ActorPlace, Title: "starting town"},
	}
}

func (hunt) CanBeUsed(env Environment) bool {
	_, ok := env.KnowledgeBase().GetSpecial(FactHeroPrefMob)
	return ok
}

func (hunt) Requirements(env Environment) map[string]Requirement {
	mob, ok := env.KnowledgeBase().GetSpecial(FactHeroPrefMob)
	if !ok {
		return nil
	}
	return map[string]Requirement{
		"mob":       {Fixed: &mob},
		"place_end": {Terrain: mob.Terrain},
	}
}

func (hunt) CreateLine(q *Quest, env Environment) (*Line, error) {
	b := q.NewLine().Move("place_end", EventHuntMoveToQuest)
	for i := 0; i < huntRounds; i++ {
		b.MoveNear("place_end", false, EventHuntTrack).
			Battle(1, "mob", EventHuntHunt)
	}
	return b.MoveNear("place_end", true, EventHuntMoveToCity).
		GetReward("", EventHuntGetReward).
		Build()
}
