package quest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// questRecord is the persisted form of a quest
type questRecord struct {
	ID        string           `json:"id"`
	Kind      Kind             `json:"kind"`
	Special   bool             `json:"special"`
	State     State            `json:"state"`
	Actors    map[string]Actor `json:"actors"`
	Line      []commandRecord  `json:"line"`
	SubQuests []questRecord    `json:"sub_quests,omitempty"`
}

// Marshal serializes a built quest. The output is deterministic: equal quests give
// equal bytes.
func Marshal(q *Quest) ([]byte, error) {
	rec, err := toRecord(q)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

func toRecord(q *Quest) (questRecord, error) {
	if q.State != StateLineBuilt {
		return questRecord{}, fmt.Errorf("%w: cannot serialize %s quest in state %s", ErrNotInitialized, q.Kind, q.State)
	}

	rec := questRecord{
		ID:      q.ID,
		Kind:    q.Kind,
		Special: q.Special,
		State:   q.State,
		Actors:  q.Actors.Map(),
		Line:    make([]commandRecord, 0, q.Line.Len()),
	}
	for _, c := range q.Line.commands {
		rec.Line = append(rec.Line, c.record())
	}
	for _, sq := range q.SubQuests {
		sub, err := toRecord(sq)
		if err != nil {
			return questRecord{}, err
		}
		rec.SubQuests = append(rec.SubQuests, sub)
	}
	return rec, nil
}

// Unmarshal rebuilds a quest serialized by Marshal. It refuses partially valid data:
// any unknown kind, malformed command, unbound reference or missing sub-quest fails
// the whole load with ErrCorruptQuest.
func (r *Registry) Unmarshal(data []byte) (*Quest, error) {
	var rec questRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptQuest, err)
	}
	q, err := r.fromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptQuest, err)
	}
	return q, nil
}

func (r *Registry) fromRecord(rec questRecord) (*Quest, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("quest without id")
	}
	v, ok := r.variant(rec.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)
	}
	if rec.Special != v.Special() {
		return nil, fmt.Errorf("quest %s: special flag %t does not match kind %s", rec.ID, rec.Special, rec.Kind)
	}
	if rec.State != StateLineBuilt {
		return nil, fmt.Errorf("quest %s: unexpected state %q", rec.ID, rec.State)
	}

	q := newQuest(v, r)
	q.ID = rec.ID

	specs := v.Actors()
	if len(rec.Actors) != len(specs) {
		return nil, fmt.Errorf("quest %s: %d actors bound, %s quests declare %d", rec.ID, len(rec.Actors), rec.Kind, len(specs))
	}
	for _, spec := range specs {
		actor, ok := rec.Actors[spec.Role]
		if !ok {
			return nil, fmt.Errorf("quest %s: %w: %q", rec.ID, ErrUnboundActor, spec.Role)
		}
		if actor.Kind != spec.Kind {
			return nil, fmt.Errorf("quest %s: %w: %q", rec.ID, ErrActorKindMismatch, spec.Role)
		}
		if err := q.Actors.Register(spec.Role, actor); err != nil {
			return nil, fmt.Errorf("quest %s: %w", rec.ID, err)
		}
	}

	for _, sub := range rec.SubQuests {
		sq, err := r.fromRecord(sub)
		if err != nil {
			return nil, err
		}
		q.SubQuests = append(q.SubQuests, sq)
	}

	cmds := make([]Command, 0, len(rec.Line))
	for i, cr := range rec.Line {
		c, err := cr.command()
		if err != nil {
			return nil, fmt.Errorf("quest %s command %d: %w", rec.ID, i, err)
		}
		cmds = append(cmds, c)
	}
	line, err := NewLine(cmds...)
	if err != nil {
		return nil, fmt.Errorf("quest %s: %w", rec.ID, err)
	}
	if err := q.checkLine(line); err != nil {
		return nil, err
	}

	q.Line = line
	q.State = StateLineBuilt
	return q, nil
}

// Digest returns the hex BLAKE2b-256 digest of serialized quest data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
