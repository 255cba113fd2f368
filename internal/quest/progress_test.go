package quest

import (
	"errors"
	"fmt"
	"testing"
)

func TestProgressWalksSubQuests(t *testing.T) {
	q := mustBuild(t, DefaultRegistry(), KindHelpFriend, newFakeEnv(friendKB()))
	sub := q.SubQuests[0]

	p := NewProgress(q)
	var trace []string
	maxDepth := 0
	for {
		cmd, owner, ok := p.Current(q)
		if !ok {
			t.Fatal("Current returned nothing before completion")
		}
		trace = append(trace, owner.ID+":"+string(cmd.Type()))
		done, err := p.Advance(q)
		if err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		if err := p.Validate(q); err != nil {
			t.Fatalf("Validate after step %d: %v", len(trace), err)
		}
		if p.Depth() > maxDepth {
			maxDepth = p.Depth()
		}
		if done {
			break
		}
		if len(trace) > 100 {
			t.Fatal("Progress never finished")
		}
	}

	if len(trace) != q.Line.Len()+sub.Line.Len() {
		t.Errorf("Executed %d commands, want %d: %v", len(trace), q.Line.Len()+sub.Line.Len(), trace)
	}
	if maxDepth != 2 {
		t.Errorf("Max depth = %d, want 2", maxDepth)
	}
	// Move, Message, SubQuest, then the whole sub-quest
	if trace[3] != sub.ID+":"+string(sub.Line.At(0).Type()) {
		t.Errorf("Sub-quest did not start after the SubQuest step: %v", trace)
	}
	if !p.Done || p.Depth() != 0 {
		t.Errorf("Progress not finished: done %v depth %d", p.Done, p.Depth())
	}
	if _, _, ok := p.Current(q); ok {
		t.Error("Current should report nothing once done")
	}
	if done, err := p.Advance(q); !done || err != nil {
		t.Errorf("Advance after completion = %v, %v", done, err)
	}
}

func TestProgressJSON(t *testing.T) {
	q := mustBuild(t, DefaultRegistry(), KindHelpFriend, newFakeEnv(friendKB()))
	p := NewProgress(q)
	for i := 0; i < 4; i++ {
		p.Advance(q)
	}

	restored, err := ProgressFromJSON(p.ToJSON())
	if err != nil {
		t.Fatalf("ProgressFromJSON failed: %v", err)
	}
	if err := restored.Validate(q); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if restored.Depth() != 2 {
		t.Errorf("Depth = %d, want 2", restored.Depth())
	}
	_, owner, _ := restored.Current(q)
	if owner != q.SubQuests[0] {
		t.Errorf("Restored progress points at %s", owner.ID)
	}
}

func TestProgressCorrupt(t *testing.T) {
	q := mustBuild(t, DefaultRegistry(), KindSpying, newFakeEnv(nil))

	tests := []struct {
		name string
		data string
	}{
		{"malformed", "{"},
		{"no quest id", `{"frames":[{"quest_id":"q1","step":0}]}`},
		{"no frames", `{"quest_id":"q1","frames":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ProgressFromJSON(tt.data); !errors.Is(err, ErrCorruptQuest) {
				t.Errorf("Expected ErrCorruptQuest, got %v", err)
			}
		})
	}

	wrongQuest, _ := ProgressFromJSON(`{"quest_id":"other","frames":[{"quest_id":"other","step":0}]}`)
	if err := wrongQuest.Validate(q); !errors.Is(err, ErrCorruptQuest) {
		t.Errorf("Expected ErrCorruptQuest for foreign progress, got %v", err)
	}

	outOfRange, _ := ProgressFromJSON(`{"quest_id":"q1","frames":[{"quest_id":"q1","step":99}]}`)
	if err := outOfRange.Validate(q); !errors.Is(err, ErrCorruptQuest) {
		t.Errorf("Expected ErrCorruptQuest for step out of range, got %v", err)
	}
	if _, err := outOfRange.Advance(q); !errors.Is(err, ErrCorruptQuest) {
		t.Errorf("Advance on corrupt progress: got %v", err)
	}

	nested := mustBuild(t, DefaultRegistry(), KindHelpFriend, newFakeEnv(friendKB()))
	sub := nested.SubQuests[0].ID
	enter := -1
	for i, c := range nested.Line.Commands() {
		if s, ok := c.(SubQuest); ok && s.Quest() == sub {
			enter = i
		}
	}
	if enter < 0 {
		t.Fatal("help_friend line has no SubQuest step")
	}

	valid := fmt.Sprintf(`{"quest_id":"q1","frames":[{"quest_id":"q1","step":%d},{"quest_id":%q,"step":0}]}`, enter+1, sub)
	inside, err := ProgressFromJSON(valid)
	if err != nil {
		t.Fatalf("ProgressFromJSON: %v", err)
	}
	if err := inside.Validate(nested); err != nil {
		t.Errorf("Progress inside the sub-quest rejected: %v", err)
	}

	chains := []struct {
		name string
		data string
	}{
		{"starts in sub-quest", fmt.Sprintf(`{"quest_id":"q1","frames":[{"quest_id":%q,"step":0}]}`, sub)},
		{"sub-quest not entered yet", fmt.Sprintf(`{"quest_id":"q1","frames":[{"quest_id":"q1","step":0},{"quest_id":%q,"step":0}]}`, sub)},
		{"entered from wrong step", fmt.Sprintf(`{"quest_id":"q1","frames":[{"quest_id":"q1","step":%d},{"quest_id":%q,"step":0}]}`, enter, sub)},
		{"parent frame repeated", `{"quest_id":"q1","frames":[{"quest_id":"q1","step":1},{"quest_id":"q1","step":0}]}`},
		{"done with open frames", `{"quest_id":"q1","frames":[{"quest_id":"q1","step":0}],"done":true}`},
	}
	for _, tt := range chains {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ProgressFromJSON(tt.data)
			if err != nil {
				t.Fatalf("ProgressFromJSON: %v", err)
			}
			if err := p.Validate(nested); !errors.Is(err, ErrCorruptQuest) {
				t.Errorf("Expected ErrCorruptQuest, got %v", err)
			}
		})
	}
}
