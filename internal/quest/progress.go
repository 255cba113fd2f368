package quest

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Frame is the simulator's position inside one quest line
type Frame struct {
	QuestID string `json:"quest_id"`
	Step    int    `json:"step"` // Index of the next command to execute
}

// Progress walks a quest line one command per game tick. A SubQuest command pushes a
// frame for the nested quest; when a frame runs out it is popped and the parent
// continues after the SubQuest step.
type Progress struct {
	mu      sync.RWMutex
	QuestID string  `json:"quest_id"`
	Frames  []Frame `json:"frames"`
	Done    bool    `json:"done"`
}

// NewProgress starts a quest at its first command
func NewProgress(q *Quest) *Progress {
	return &Progress{
		QuestID: q.ID,
		Frames:  []Frame{{QuestID: q.ID}},
	}
}

// ToJSON serializes progress for database storage
func (p *Progress) ToJSON() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ProgressFromJSON deserializes progress from the database
func ProgressFromJSON(data string) (*Progress, error) {
	p := &Progress{}
	if err := json.Unmarshal([]byte(data), p); err != nil {
		return nil, fmt.Errorf("%w: progress: %v", ErrCorruptQuest, err)
	}
	if p.QuestID == "" {
		return nil, fmt.Errorf("%w: progress without quest id", ErrCorruptQuest)
	}
	if !p.Done && len(p.Frames) == 0 {
		return nil, fmt.Errorf("%w: progress of %s has no frames", ErrCorruptQuest, p.QuestID)
	}
	return p, nil
}

// Validate checks that the progress is a path through q: the first frame is q itself,
// every further frame is the sub-quest its parent just entered, and only the
// innermost frame may point at a command not executed yet.
func (p *Progress) Validate(q *Quest) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.QuestID != q.ID {
		return fmt.Errorf("%w: progress for %s applied to %s", ErrCorruptQuest, p.QuestID, q.ID)
	}
	if p.Done {
		if len(p.Frames) != 0 {
			return fmt.Errorf("%w: finished progress of %s has open frames", ErrCorruptQuest, q.ID)
		}
		return nil
	}
	if len(p.Frames) == 0 {
		return fmt.Errorf("%w: progress of %s has no frames", ErrCorruptQuest, q.ID)
	}
	if p.Frames[0].QuestID != q.ID {
		return fmt.Errorf("%w: progress starts in %s, not %s", ErrCorruptQuest, p.Frames[0].QuestID, q.ID)
	}

	cur := q
	for i, f := range p.Frames {
		if i > 0 {
			parent := p.Frames[i-1]
			sub, ok := cur.Line.At(parent.Step - 1).(SubQuest)
			if !ok || sub.Quest() != f.QuestID {
				return fmt.Errorf("%w: %s/%d did not enter %s", ErrCorruptQuest, parent.QuestID, parent.Step, f.QuestID)
			}
			if cur = cur.subQuest(f.QuestID); cur == nil {
				return fmt.Errorf("%w: progress frame for unknown quest %s", ErrCorruptQuest, f.QuestID)
			}
		}

		lo, hi := 0, cur.Line.Len()-1
		if i < len(p.Frames)-1 {
			lo, hi = 1, cur.Line.Len()
		}
		if f.Step < lo || f.Step > hi {
			return fmt.Errorf("%w: progress step %d outside %s", ErrCorruptQuest, f.Step, f.QuestID)
		}
	}
	return nil
}

// Current returns the command to execute next, and the quest it belongs to
func (p *Progress) Current(q *Quest) (Command, *Quest, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.Done || len(p.Frames) == 0 {
		return nil, nil, false
	}
	top := p.Frames[len(p.Frames)-1]
	cur := q.Find(top.QuestID)
	if cur == nil || top.Step >= cur.Line.Len() {
		return nil, nil, false
	}
	return cur.Line.At(top.Step), cur, true
}

// Advance marks the current command executed and returns true once the whole quest
// is complete
func (p *Progress) Advance(q *Quest) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Done {
		return true, nil
	}
	if len(p.Frames) == 0 {
		return false, fmt.Errorf("%w: progress of %s has no frames", ErrCorruptQuest, p.QuestID)
	}

	top := &p.Frames[len(p.Frames)-1]
	cur := q.Find(top.QuestID)
	if cur == nil || top.Step >= cur.Line.Len() {
		return false, fmt.Errorf("%w: progress frame %s/%d", ErrCorruptQuest, top.QuestID, top.Step)
	}

	cmd := cur.Line.At(top.Step)
	top.Step++
	if sub, ok := cmd.(SubQuest); ok {
		p.Frames = append(p.Frames, Frame{QuestID: sub.Quest()})
	}

	// Pop every finished frame
	for len(p.Frames) > 0 {
		last := p.Frames[len(p.Frames)-1]
		lq := q.Find(last.QuestID)
		if lq == nil {
			return false, fmt.Errorf("%w: progress frame for unknown quest %s", ErrCorruptQuest, last.QuestID)
		}
		if last.Step < lq.Line.Len() {
			break
		}
		p.Frames = p.Frames[:len(p.Frames)-1]
	}

	if len(p.Frames) == 0 {
		p.Done = true
	}
	return p.Done, nil
}

// Depth returns how many quests are currently open
func (p *Progress) Depth() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.Frames)
}
