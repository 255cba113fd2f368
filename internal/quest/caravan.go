package quest

// Caravan events
const (
	EventCaravanMoveToCaravan = "move_to_caravan"
	EventCaravanDeparts       = "caravan_departs"
	EventCaravanEscort        = "escort"
	EventCaravanAmbush        = "ambush"
	EventCaravanArrive        = "arrive"
	EventCaravanReward        = "get_reward"
)

// maxCaravanAmbushers bounds the number of mobs in the ambush.
const maxCaravanAmbushers = 3

// caravan escorts a caravan through an ambush.
type caravan struct{}

func (caravan) Kind() Kind    { return KindCaravan }
func (caravan) Special() bool { return false }

func (caravan) Actors() []ActorSpec {
	return []ActorSpec{
		{Role: "place_start", Kind: ActorPlace, Title: "departure"},
		{Role: "place_end", Kind: ActorPlace, Title: "destination"},
		{Role: "mob", Kind: ActorMob, Title: "raiders"},
	}
}

func (caravan) CanBeUsed(env Environment) bool { return true }

func (caravan) Requirements(env Environment) map[string]Requirement { return nil }

func (caravan) CreateLine(q *Quest, env Environment) (*Line, error) {
	ambushers := 1 + env.Intn(maxCaravanAmbushers)
	return q.NewLine().
		Move("place_start", EventCaravanMoveToCaravan).
		Message("place_start", EventCaravanDeparts).
		MoveNear("place_end", false, EventCaravanEscort).
		Battle(ambushers, "mob", EventCaravanAmbush).
		Move("place_end", EventCaravanArrive).
		GetReward("", EventCaravanReward).
		Build()
}
