package quest

import "fmt"

// CommandType identifies a command primitive
type CommandType string

const (
	CommandMove      CommandType = "move"       // Travel to a place
	CommandMoveNear  CommandType = "move_near"  // Wander around a place
	CommandBattle    CommandType = "battle"     // Fight a mob
	CommandGetReward CommandType = "get_reward" // Collect the quest reward
	CommandGetItem   CommandType = "get_item"   // Receive a quest item
	CommandGiveItem  CommandType = "give_item"  // Hand over a quest item
	CommandGivePower CommandType = "give_power" // Change a person's standing
	CommandDoNothing CommandType = "do_nothing" // Wait for a number of turns
	CommandMessage   CommandType = "message"    // Pure narration step
	CommandSubQuest  CommandType = "sub_quest"  // Run a nested quest
)

// Command is one atomic quest step. The set of implementations is closed: Move,
// MoveNear, Battle, GetReward, GetItem, GiveItem, GivePower, DoNothing, Message and
// SubQuest. Commands are immutable values.
type Command interface {
	Type() CommandType
	// Event is the narration tag used to look up flavor text.
	Event() string
	// Actors returns the roles the command references.
	Actors() []string

	record() commandRecord
}

func requireEvent(t CommandType, event string) error {
	if event == "" {
		return fmt.Errorf("%w: %s command without event", ErrInvalidCommand, t)
	}
	return nil
}

func requireRole(t CommandType, field, role string) error {
	if role == "" {
		return fmt.Errorf("%w: %s command requires %s", ErrMissingActor, t, field)
	}
	return nil
}

func roles(rs ...string) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

// Move sends the hero to a place.
type Move struct {
	place string
	event string
}

// NewMove creates a Move command.
func NewMove(place, event string) (Move, error) {
	if err := requireRole(CommandMove, "place", place); err != nil {
		return Move{}, err
	}
	if err := requireEvent(CommandMove, event); err != nil {
		return Move{}, err
	}
	return Move{place: place, event: event}, nil
}

func (c Move) Type() CommandType { return CommandMove }
func (c Move) Event() string     { return c.event }
func (c Move) Actors() []string  { return roles(c.place) }
func (c Move) Place() string     { return c.place }

func (c Move) record() commandRecord {
	return commandRecord{Type: CommandMove, Event: c.event, Place: c.place}
}

// MoveNear makes the hero roam the surroundings of a place. Back marks the return leg.
type MoveNear struct {
	place string
	back  bool
	event string
}

// NewMoveNear creates a MoveNear command.
func NewMoveNear(place string, back bool, event string) (MoveNear, error) {
	if err := requireRole(CommandMoveNear, "place", place); err != nil {
		return MoveNear{}, err
	}
	if err := requireEvent(CommandMoveNear, event); err != nil {
		return MoveNear{}, err
	}
	return MoveNear{place: place, back: back, event: event}, nil
}

func (c MoveNear) Type() CommandType { return CommandMoveNear }
func (c MoveNear) Event() string     { return c.event }
func (c MoveNear) Actors() []string  { return roles(c.place) }
func (c MoveNear) Place() string     { return c.place }
func (c MoveNear) Back() bool        { return c.back }

func (c MoveNear) record() commandRecord {
	return commandRecord{Type: CommandMoveNear, Event: c.event, Place: c.place, Back: c.back}
}

// Battle fights Number mobs of the kind bound to the mob role.
type Battle struct {
	number int
	mob    string
	event  string
}

// NewBattle creates a Battle command.
func NewBattle(number int, mob, event string) (Battle, error) {
	if number < 1 {
		return Battle{}, fmt.Errorf("%w: battle number must be positive, got %d", ErrInvalidCommand, number)
	}
	if err := requireRole(CommandBattle, "mob", mob); err != nil {
		return Battle{}, err
	}
	if err := requireEvent(CommandBattle, event); err != nil {
		return Battle{}, err
	}
	return Battle{number: number, mob: mob, event: event}, nil
}

func (c Battle) Type() CommandType { return CommandBattle }
func (c Battle) Event() string     { return c.event }
func (c Battle) Actors() []string  { return roles(c.mob) }
func (c Battle) Number() int       { return c.number }
func (c Battle) Mob() string       { return c.mob }

func (c Battle) record() commandRecord {
	return commandRecord{Type: CommandBattle, Event: c.event, Mob: c.mob, Number: c.number}
}

// GetReward pays the hero. The person is optional; empty means the reward comes from
// the hero's guild rather than from a quest actor.
type GetReward struct {
	person string
	event  string
}

// NewGetReward creates a GetReward command.
func NewGetReward(person, event string) (GetReward, error) {
	if err := requireEvent(CommandGetReward, event); err != nil {
		return GetReward{}, err
	}
	return GetReward{person: person, event: event}, nil
}

func (c GetReward) Type() CommandType { return CommandGetReward }
func (c GetReward) Event() string     { return c.event }
func (c GetReward) Actors() []string  { return roles(c.person) }
func (c GetReward) Person() string    { return c.person }

func (c GetReward) record() commandRecord {
	return commandRecord{Type: CommandGetReward, Event: c.event, Person: c.person}
}

// GetItem gives the hero a quest item from a person.
type GetItem struct {
	person string
	item   string
	event  string
}

// NewGetItem creates a GetItem command.
func NewGetItem(person, item, event string) (GetItem, error) {
	if err := requireRole(CommandGetItem, "person", person); err != nil {
		return GetItem{}, err
	}
	if item == "" {
		return GetItem{}, fmt.Errorf("%w: get_item command without item", ErrInvalidCommand)
	}
	if err := requireEvent(CommandGetItem, event); err != nil {
		return GetItem{}, err
	}
	return GetItem{person: person, item: item, event: event}, nil
}

func (c GetItem) Type() CommandType { return CommandGetItem }
func (c GetItem) Event() string     { return c.event }
func (c GetItem) Actors() []string  { return roles(c.person) }
func (c GetItem) Person() string    { return c.person }
func (c GetItem) Item() string      { return c.item }

func (c GetItem) record() commandRecord {
	return commandRecord{Type: CommandGetItem, Event: c.event, Person: c.person, Item: c.item}
}

// GiveItem takes a quest item from the hero and hands it to a person.
type GiveItem struct {
	person string
	item   string
	event  string
}

// NewGiveItem creates a GiveItem command.
func NewGiveItem(person, item, event string) (GiveItem, error) {
	if err := requireRole(CommandGiveItem, "person", person); err != nil {
		return GiveItem{}, err
	}
	if item == "" {
		return GiveItem{}, fmt.Errorf("%w: give_item command without item", ErrInvalidCommand)
	}
	if err := requireEvent(CommandGiveItem, event); err != nil {
		return GiveItem{}, err
	}
	return GiveItem{person: person, item: item, event: event}, nil
}

func (c GiveItem) Type() CommandType { return CommandGiveItem }
func (c GiveItem) Event() string     { return c.event }
func (c GiveItem) Actors() []string  { return roles(c.person) }
func (c GiveItem) Person() string    { return c.person }
func (c GiveItem) Item() string      { return c.item }

func (c GiveItem) record() commandRecord {
	return commandRecord{Type: CommandGiveItem, Event: c.event, Person: c.person, Item: c.item}
}

// GivePower changes a person's political power. Negative values are allowed.
type GivePower struct {
	person string
	power  int
	event  string
}

// NewGivePower creates a GivePower command.
func NewGivePower(person string, power int, event string) (GivePower, error) {
	if err := requireRole(CommandGivePower, "person", person); err != nil {
		return GivePower{}, err
	}
	if power == 0 {
		return GivePower{}, fmt.Errorf("%w: give_power command with zero power", ErrInvalidCommand)
	}
	if err := requireEvent(CommandGivePower, event); err != nil {
		return GivePower{}, err
	}
	return GivePower{person: person, power: power, event: event}, nil
}

func (c GivePower) Type() CommandType { return CommandGivePower }
func (c GivePower) Event() string     { return c.event }
func (c GivePower) Actors() []string  { return roles(c.person) }
func (c GivePower) Person() string    { return c.person }
func (c GivePower) Power() int        { return c.power }

func (c GivePower) record() commandRecord {
	return commandRecord{Type: CommandGivePower, Event: c.event, Person: c.person, Power: c.power}
}

// DoNothing keeps the hero busy for Duration turns, optionally near an actor.
type DoNothing struct {
	duration int
	actor    string
	event    string
}

// NewDoNothing creates a DoNothing command.
func NewDoNothing(duration int, actor, event string) (DoNothing, error) {
	if duration < 1 {
		return DoNothing{}, fmt.Errorf("%w: do_nothing duration must be positive, got %d", ErrInvalidCommand, duration)
	}
	if err := requireEvent(CommandDoNothing, event); err != nil {
		return DoNothing{}, err
	}
	return DoNothing{duration: duration, actor: actor, event: event}, nil
}

func (c DoNothing) Type() CommandType { return CommandDoNothing }
func (c DoNothing) Event() string     { return c.event }
func (c DoNothing) Actors() []string  { return roles(c.actor) }
func (c DoNothing) Duration() int     { return c.duration }
func (c DoNothing) Actor() string     { return c.actor }

func (c DoNothing) record() commandRecord {
	return commandRecord{Type: CommandDoNothing, Event: c.event, Actor: c.actor, Duration: c.duration}
}

// Message is a narration-only step.
type Message struct {
	actor string
	event string
}

// NewMessage creates a Message command.
func NewMessage(actor, event string) (Message, error) {
	if err := requireEvent(CommandMessage, event); err != nil {
		return Message{}, err
	}
	return Message{actor: actor, event: event}, nil
}

func (c Message) Type() CommandType { return CommandMessage }
func (c Message) Event() string     { return c.event }
func (c Message) Actors() []string  { return roles(c.actor) }
func (c Message) Actor() string     { return c.actor }

func (c Message) record() commandRecord {
	return commandRecord{Type: CommandMessage, Event: c.event, Actor: c.actor}
}

// SubQuest hands control to a nested quest registered on the parent.
type SubQuest struct {
	quest string
	event string
}

// NewSubQuest creates a SubQuest command for the sub-quest with the given identifier.
func NewSubQuest(questID, event string) (SubQuest, error) {
	if questID == "" {
		return SubQuest{}, fmt.Errorf("%w: sub_quest command without quest id", ErrInvalidCommand)
	}
	if err := requireEvent(CommandSubQuest, event); err != nil {
		return SubQuest{}, err
	}
	return SubQuest{quest: questID, event: event}, nil
}

func (c SubQuest) Type() CommandType { return CommandSubQuest }
func (c SubQuest) Event() string     { return c.event }
func (c SubQuest) Actors() []string  { return nil }
func (c SubQuest) Quest() string     { return c.quest }

func (c SubQuest) record() commandRecord {
	return commandRecord{Type: CommandSubQuest, Event: c.event, Quest: c.quest}
}

// commandRecord is the flat wire form shared by all command types.
type commandRecord struct {
	Type     CommandType `json:"type"`
	Event    string      `json:"event"`
	Place    string      `json:"place,omitempty"`
	Person   string      `json:"person,omitempty"`
	Mob      string      `json:"mob,omitempty"`
	Actor    string      `json:"actor,omitempty"`
	Item     string      `json:"item,omitempty"`
	Quest    string      `json:"quest,omitempty"`
	Number   int         `json:"number,omitempty"`
	Power    int         `json:"power,omitempty"`
	Duration int         `json:"duration,omitempty"`
	Back     bool        `json:"back,omitempty"`
}

// command rebuilds a Command through its constructor so that every invariant is
// checked again.
func (r commandRecord) command() (Command, error) {
	switch r.Type {
	case CommandMove:
		return NewMove(r.Place, r.Event)
	case CommandMoveNear:
		return NewMoveNear(r.Place, r.Back, r.Event)
	case CommandBattle:
		return NewBattle(r.Number, r.Mob, r.Event)
	case CommandGetReward:
		return NewGetReward(r.Person, r.Event)
	case CommandGetItem:
		return NewGetItem(r.Person, r.Item, r.Event)
	case CommandGiveItem:
		return NewGiveItem(r.Person, r.Item, r.Event)
	case CommandGivePower:
		return NewGivePower(r.Person, r.Power, r.Event)
	case CommandDoNothing:
		return NewDoNothing(r.Duration, r.Actor, r.Event)
	case CommandMessage:
		return NewMessage(r.Actor, r.Event)
	case CommandSubQuest:
		return NewSubQuest(r.Quest, r.Event)
	default:
		return nil, fmt.Errorf("%w: unknown command type %q", ErrInvalidCommand, r.Type)
	}
}
