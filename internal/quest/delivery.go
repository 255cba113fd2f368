package quest

// Delivery events
const (
	EventDeliveryMoveToGiver    = "move_to_giver"
	EventDeliveryTakeParcel     = "take_parcel"
	EventDeliveryMoveToReceiver = "move_to_receiver"
	EventDeliveryGiveParcel     = "give_parcel"
	EventDeliveryGrateful       = "receiver_grateful"
	EventDeliveryReward         = "get_reward"
)

const deliveryItem = "parcel"

// delivery carries a parcel from a person in one town to a person in another.
type delivery struct{}

func (delivery) Kind() Kind    { return KindDelivery }
func (delivery) Special() bool { return false }

func (delivery) Actors() []ActorSpec {
	return []ActorSpec{
		{Role: "place_start", Kind: ActorPlace, Title: "sender's town"},
		{Role: "person_start", Kind: ActorPerson, Title: "sender"},
		{Role: "place_end", Kind: ActorPlace, Title: "receiver's town"},
		{Role: "person_end", Kind: ActorPerson, Title: "receiver"},
	}
}

func (delivery) CanBeUsed(env Environment) bool { return true }

func (delivery) Requirements(env Environment) map[string]Requirement {
	return map[string]Requirement{
		"person_start": {At: "place_start"},
		"person_end":   {At: "place_end"},
	}
}

func (delivery) CreateLine(q *Quest, env Environment) (*Line, error) {
	return q.NewLine().
		Move("place_start", EventDeliveryMoveToGiver).
		GetItem("person_start", deliveryItem, EventDeliveryTakeParcel).
		Move("place_end", EventDeliveryMoveToReceiver).
		GiveItem("person_end", deliveryItem, EventDeliveryGiveParcel).
		GivePower("person_end", 1, EventDeliveryGrateful).
		GetReward("person_end", EventDeliveryReward).
		Build()
}
