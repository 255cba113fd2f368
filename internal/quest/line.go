package quest

import (
	"fmt"
	"sort"
)

// Line is an ordered, non-empty sequence of commands. The order is the execution order.
type Line struct {
	commands []Command
}

// NewLine creates a line from commands.
func NewLine(commands ...Command) (*Line, error) {
	if len(commands) == 0 {
		return nil, ErrEmptyLine
	}
	cmds := make([]Command, len(commands))
	copy(cmds, commands)
	return &Line{commands: cmds}, nil
}

// Len returns the number of commands.
func (l *Line) Len() int {
	return len(l.commands)
}

// At returns the command at position i.
func (l *Line) At(i int) Command {
	return l.commands[i]
}

// Commands returns a copy of the command sequence.
func (l *Line) Commands() []Command {
	out := make([]Command, len(l.commands))
	copy(out, l.commands)
	return out
}

// Actors returns the distinct roles referenced by the line, sorted.
func (l *Line) Actors() []string {
	seen := make(map[string]bool)
	for _, c := range l.commands {
		for _, role := range c.Actors() {
			seen[role] = true
		}
	}
	out := make([]string, 0, len(seen))
	for role := range seen {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// LineBuilder assembles a line against a namespace. The first error sticks and is
// returned by Build; every command is checked against the namespace as it is added.
type LineBuilder struct {
	ns       *Namespace
	commands []Command
	err      error
}

// NewLineBuilder creates a builder checking references against ns.
func NewLineBuilder(ns *Namespace) *LineBuilder {
	return &LineBuilder{ns: ns}
}

func (b *LineBuilder) add(c Command, err error) *LineBuilder {
	if b.err != nil {
		return b
	}
	if err != nil {
		b.err = fmt.Errorf("command %d: %w", len(b.commands), err)
		return b
	}
	for _, role := range c.Actors() {
		if !b.ns.Has(role) {
			b.err = fmt.Errorf("%w: %q in %s command %d", ErrUnboundActor, role, c.Type(), len(b.commands))
			return b
		}
	}
	b.commands = append(b.commands, c)
	return b
}

func (b *LineBuilder) Move(place, event string) *LineBuilder {
	return b.add(NewMove(place, event))
}

func (b *LineBuilder) MoveNear(place string, back bool, event string) *LineBuilder {
	return b.add(NewMoveNear(place, back, event))
}

func (b *LineBuilder) Battle(number int, mob, event string) *LineBuilder {
	return b.add(NewBattle(number, mob, event))
}

func (b *LineBuilder) GetReward(person, event string) *LineBuilder {
	return b.add(NewGetReward(person, event))
}

func (b *LineBuilder) GetItem(person, item, event string) *LineBuilder {
	return b.add(NewGetItem(person, item, event))
}

func (b *LineBuilder) GiveItem(person, item, event string) *LineBuilder {
	return b.add(NewGiveItem(person, item, event))
}

func (b *LineBuilder) GivePower(person string, power int, event string) *LineBuilder {
	return b.add(NewGivePower(person, power, event))
}

func (b *LineBuilder) DoNothing(duration int, actor, event string) *LineBuilder {
	return b.add(NewDoNothing(duration, actor, event))
}

func (b *LineBuilder) Message(actor, event string) *LineBuilder {
	return b.add(NewMessage(actor, event))
}

func (b *LineBuilder) SubQuest(questID, event string) *LineBuilder {
	return b.add(NewSubQuest(questID, event))
}

// Build returns the assembled line or the first error encountered.
func (b *LineBuilder) Build() (*Line, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewLine(b.commands...)
}
