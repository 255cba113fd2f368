package quest

// Spying events
const (
	EventSpyingGetTask      = "get_task"
	EventSpyingMoveToTarget = "move_to_target"
	EventSpyingShadow       = "shadow"
	EventSpyingObserve      = "observe"
	EventSpyingReturn       = "return"
	EventSpyingReport       = "report"
	EventSpyingReward       = "get_reward"
)

// spying watches a person in another town on behalf of a customer.
type spying struct{}

func (spying) Kind() Kind    { return KindSpying }
func (spying) Special() bool { return false }

func (spying) Actors() []ActorSpec {
	return []ActorSpec{
		{Role: "place_start", Kind: ActorPlace, Title: "customer's town"},
		{Role: "person_customer", Kind: ActorPerson, Title: "customer"},
		{Role: "place_end", Kind: ActorPlace, Title: "target's town"},
		{Role: "person_target", Kind: ActorPerson, Title: "target"},
	}
}

func (spying) CanBeUsed(env Environment) bool { return true }

func (spying) Requirements(env Environment) map[string]Requirement {
	return map[string]Requirement{
		"person_customer": {At: "place_start"},
		"person_target":   {At: "place_end"},
	}
}

func (spying) CreateLine(q *Quest, env Environment) (*Line, error) {
	return q.NewLine().
		Message("person_customer", EventSpyingGetTask).
		Move("place_end", EventSpyingMoveToTarget).
		MoveNear("place_end", false, EventSpyingShadow).
		DoNothing(2, "person_target", EventSpyingObserve).
		Move("place_start", EventSpyingReturn).
		Message("person_customer", EventSpyingReport).
		GetReward("person_customer", EventSpyingReward).
		Build()
}
