package quest

import (
	"errors"
	"reflect"
	"testing"
)

func TestCommandConstructorsRejectInvalid(t *testing.T) {
	tests := []struct {
		name    string
		build   func() error
		wantErr error
	}{
		{"move without place", func() error { _, err := NewMove("", "go"); return err }, ErrMissingActor},
		{"move without event", func() error { _, err := NewMove("place_end", ""); return err }, ErrInvalidCommand},
		{"move near without place", func() error { _, err := NewMoveNear("", true, "go"); return err }, ErrMissingActor},
		{"battle with zero mobs", func() error { _, err := NewBattle(0, "mob", "fight"); return err }, ErrInvalidCommand},
		{"battle without mob", func() error { _, err := NewBattle(1, "", "fight"); return err }, ErrMissingActor},
		{"get item without item", func() error { _, err := NewGetItem("person", "", "take"); return err }, ErrInvalidCommand},
		{"give item without person", func() error { _, err := NewGiveItem("", "parcel", "give"); return err }, ErrMissingActor},
		{"give zero power", func() error { _, err := NewGivePower("person", 0, "thanks"); return err }, ErrInvalidCommand},
		{"do nothing for zero turns", func() error { _, err := NewDoNothing(0, "", "wait"); return err }, ErrInvalidCommand},
		{"message without event", func() error { _, err := NewMessage("person", ""); return err }, ErrInvalidCommand},
		{"sub quest without id", func() error { _, err := NewSubQuest("", "help"); return err }, ErrInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.build(); !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommandActors(t *testing.T) {
	reward, _ := NewGetReward("", "get_reward")
	if len(reward.Actors()) != 0 {
		t.Errorf("Reward without person should reference no role, got %v", reward.Actors())
	}

	wait, _ := NewDoNothing(3, "place_end", "rest")
	if !reflect.DeepEqual(wait.Actors(), []string{"place_end"}) {
		t.Errorf("DoNothing actors = %v", wait.Actors())
	}

	sub, _ := NewSubQuest("q1.1", "help")
	if sub.Actors() != nil {
		t.Errorf("SubQuest should not reference roles, got %v", sub.Actors())
	}

	power, err := NewGivePower("person_end", -2, "annoyed")
	if err != nil {
		t.Fatalf("Negative power should be allowed: %v", err)
	}
	if power.Power() != -2 || power.Person() != "person_end" {
		t.Errorf("Unexpected GivePower: %+v", power)
	}
}

func TestCommandRecordRebuild(t *testing.T) {
	cmds := []Command{}
	add := func(c Command, err error) {
		if err != nil {
			t.Fatalf("constructor failed: %v", err)
		}
		cmds = append(cmds, c)
	}
	add(NewMove("place_end", "go"))
	add(NewMoveNear("place_end", true, "back"))
	add(NewBattle(2, "mob", "fight"))
	add(NewGetReward("person", "pay"))
	add(NewGetItem("person", "parcel", "take"))
	add(NewGiveItem("person", "parcel", "give"))
	add(NewGivePower("person", 3, "thanks"))
	add(NewDoNothing(4, "", "wait"))
	add(NewMessage("person", "talk"))
	add(NewSubQuest("q1.1", "help"))

	for _, c := range cmds {
		back, err := c.record().command()
		if err != nil {
			t.Errorf("%s: rebuild failed: %v", c.Type(), err)
			continue
		}
		if !reflect.DeepEqual(c, back) {
			t.Errorf("%s: rebuilt %+v, want %+v", c.Type(), back, c)
		}
	}

	if _, err := (commandRecord{Type: "teleport", Event: "poof"}).command(); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("Unknown type should fail with ErrInvalidCommand, got %v", err)
	}
}
