package quest

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/paniker63/the-tale/internal/logger"
	"github.com/paniker63/the-tale/internal/metrics"
)

// Selector chooses and generates quests from a registry.
//
// Special kinds are tried in priority order and the first one that can be used and
// generated wins. Otherwise a non-special kind is drawn among the usable ones with
// probability proportional to its weight, using the environment's seeded randomness,
// so that the same seed and world give the same quest.
type Selector struct {
	registry *Registry
}

// NewSelector creates a selector over registry.
func NewSelector(registry *Registry) *Selector {
	return &Selector{registry: registry}
}

// Generate picks a kind for env and builds a quest of it.
func (s *Selector) Generate(env Environment) (*Quest, error) {
	return s.GenerateWith(env, nil)
}

// GenerateWith is Generate with caller-supplied bindings. Each candidate only receives
// the overrides for roles it declares.
func (s *Selector) GenerateWith(env Environment, overrides map[string]Actor) (*Quest, error) {
	id, err := newQuestID(env)
	if err != nil {
		return nil, err
	}

	for _, kind := range s.registry.Priority() {
		q, err := s.try(kind, id, env, overrides)
		if err != nil {
			return nil, err
		}
		if q != nil {
			return q, nil
		}
	}

	candidates := make([]Kind, 0)
	for _, kind := range s.registry.Weighted() {
		v, _ := s.registry.variant(kind)
		if v.CanBeUsed(env) {
			candidates = append(candidates, kind)
		} else {
			metrics.CandidatesRejected.WithLabelValues(string(kind), "precondition").Inc()
		}
	}

	for len(candidates) > 0 {
		i := s.draw(env, candidates)
		kind := candidates[i]
		candidates = append(candidates[:i], candidates[i+1:]...)

		q, err := s.try(kind, id, env, overrides)
		if err != nil {
			return nil, err
		}
		if q != nil {
			return q, nil
		}
	}

	metrics.GenerationFailures.Inc()
	return nil, ErrNoQuestAvailable
}

// GenerateKind builds a quest of a specific kind, bypassing the selection policy but
// not the kind's precondition.
func (s *Selector) GenerateKind(env Environment, kind Kind, overrides map[string]Actor) (*Quest, error) {
	id, err := newQuestID(env)
	if err != nil {
		return nil, err
	}
	q, err := s.try(kind, id, env, overrides)
	if err != nil {
		return nil, err
	}
	if q == nil {
		metrics.GenerationFailures.Inc()
		return nil, fmt.Errorf("%w: %s quest cannot be generated here", ErrNoQuestAvailable, kind)
	}
	return q, nil
}

// try generates one candidate. A nil quest with a nil error means the candidate did
// not apply and the caller should move on.
func (s *Selector) try(kind Kind, id string, env Environment, overrides map[string]Actor) (*Quest, error) {
	v, ok := s.registry.variant(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if !v.CanBeUsed(env) {
		logger.Debug("Quest candidate not applicable", "kind", kind)
		metrics.CandidatesRejected.WithLabelValues(string(kind), "precondition").Inc()
		return nil, nil
	}

	q, err := s.registry.instantiate(kind, id, env, filterOverrides(v, overrides))
	if err == nil {
		logger.Info("Quest generated", "kind", kind, "id", id, "actors", q.Actors.Len(), "steps", q.Line.Len())
		metrics.QuestsGenerated.WithLabelValues(string(kind)).Inc()
		return q, nil
	}
	if errors.Is(err, ErrConstraintUnsatisfiable) {
		logger.Debug("Quest candidate unsatisfiable", "kind", kind, "error", err)
		metrics.CandidatesRejected.WithLabelValues(string(kind), "constraint").Inc()
		return nil, nil
	}

	logger.Error("Quest template failed", "kind", kind, "error", err)
	metrics.GenerationFailures.Inc()
	return nil, err
}

// draw picks an index into candidates proportionally to the kinds' weights.
func (s *Selector) draw(env Environment, candidates []Kind) int {
	total := 0
	for _, kind := range candidates {
		total += s.registry.Weight(kind)
	}
	roll := env.Intn(total)
	for i, kind := range candidates {
		roll -= s.registry.Weight(kind)
		if roll < 0 {
			return i
		}
	}
	return len(candidates) - 1
}

// newQuestID draws a version 4 UUID from the environment's randomness.
func newQuestID(env Environment) (string, error) {
	id, err := uuid.NewRandomFromReader(env)
	if err != nil {
		return "", fmt.Errorf("failed to draw quest id: %w", err)
	}
	return id.String(), nil
}
