package quest

// Help friend events
const (
	EventHelpMoveToFriend   = "move_to_friend"
	EventHelpAsk            = "ask_for_help"
	EventHelpJob            = "help"
	EventHelpReturn         = "return_to_friend"
	EventHelpFriendGrateful = "friend_grateful"
	EventHelpReward         = "get_reward"
)

// helpFriendJobs are the kinds a friend may ask for.
var helpFriendJobs = []Kind{KindDelivery, KindCaravan, KindSpying}

// helpFriend runs a sub-quest on behalf of the hero's friend, starting from the
// friend's town.
type helpFriend struct{}

func (helpFriend) Kind() Kind    { return KindHelpFriend }
func (helpFriend) Special() bool { return false }

func (helpFriend) Actors() []ActorSpec {
	return []ActorSpec{
		{Role: "person_friend", Kind: ActorPerson, Title: "friend"},
		{Role: "place_friend", Kind: ActorPlace, Title: "friend's town"},
	}
}

func (helpFriend) CanBeUsed(env Environment) bool {
	_, ok := env.KnowledgeBase().GetSpecial(FactHeroFriend)
	return ok
}

func (helpFriend) Requirements(env Environment) map[string]Requirement {
	friend, ok := env.KnowledgeBase().GetSpecial(FactHeroFriend)
	if !ok {
		return nil
	}
	return map[string]Requirement{
		"person_friend": {Fixed: &friend},
		"place_friend":  {HomeOf: "person_friend"},
	}
}

func (helpFriend) CreateLine(q *Quest, env Environment) (*Line, error) {
	home, _ := q.Actors.Get("place_friend")
	job, err := q.Spawn(env, helpFriendJobs, map[string]Actor{"place_start": home})
	if err != nil {
		return nil, err
	}
	return q.NewLine().
		Move("place_friend", EventHelpMoveToFriend).
		Message("person_friend", EventHelpAsk).
		SubQuest(job.ID, EventHelpJob).
		Move("place_friend", EventHelpReturn).
		GivePower("person_friend", 2, EventHelpFriendGrateful).
		GetReward("person_friend", EventHelpReward).
		Build()
}
