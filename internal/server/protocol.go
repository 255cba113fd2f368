package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/paniker63/the-tale/internal/database"
	"github.com/paniker63/the-tale/internal/logger"
	"github.com/paniker63/the-tale/internal/quest"
	"github.com/paniker63/the-tale/internal/world"
)

// Request operations
const (
	OpGenerate = "generate" // Generate and store a new quest for the hero
	OpShow     = "show"     // Return the hero's stored quest
	OpStep     = "step"     // Execute the hero's current quest command
	OpAbandon  = "abandon"  // Drop the hero's quest
)

// ErrBadRequest marks requests rejected because of what the client sent.
var ErrBadRequest = errors.New("bad request")

// Request is one simulator message.
type Request struct {
	Op     string          `json:"op"`
	HeroID int64           `json:"hero_id"`
	Seed   int64           `json:"seed,omitempty"` // 0 draws a seed from the clock
	Facts  world.HeroFacts `json:"facts"`          // What the generator knows about the hero
	Kind   string          `json:"kind,omitempty"` // Force a quest kind
}

// Response answers a Request. Error is set when the request failed.
type Response struct {
	Op        string          `json:"op"`
	HeroID    int64           `json:"hero_id,omitempty"`
	Quest     json.RawMessage `json:"quest,omitempty"`
	Narration []string        `json:"narration,omitempty"`
	Step      string          `json:"step,omitempty"`
	Done      bool            `json:"done,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Handle executes one request.
func (s *Server) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.HeroID <= 0 {
		return nil, fmt.Errorf("%w: hero_id must be positive", ErrBadRequest)
	}

	switch req.Op {
	case OpGenerate:
		return s.generate(ctx, req)
	case OpShow:
		return s.show(ctx, req)
	case OpStep:
		return s.step(ctx, req)
	case OpAbandon:
		if err := s.db.DeleteQuest(ctx, req.HeroID); err != nil {
			return nil, err
		}
		logger.Info("Quest abandoned", "hero", req.HeroID)
		return &Response{Op: req.Op, HeroID: req.HeroID, Done: true}, nil
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrBadRequest, req.Op)
	}
}

func (s *Server) generate(ctx context.Context, req *Request) (*Response, error) {
	kb, err := s.world.Knowledge(req.Facts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	env := world.NewEnvironment(s.world, kb, seed)

	var q *quest.Quest
	if req.Kind != "" {
		kind, err := quest.ParseKind(req.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		q, err = s.selector.GenerateKind(env, kind, nil)
		if err != nil {
			return nil, err
		}
	} else {
		q, err = s.selector.Generate(env)
		if err != nil {
			return nil, err
		}
	}

	if err := s.lexicon.Check(q); err != nil {
		logger.Error("Generated quest cannot be narrated", "kind", q.Kind, "error", err)
		return nil, err
	}

	p := quest.NewProgress(q)
	if err := s.db.SaveQuest(ctx, req.HeroID, q, p); err != nil {
		return nil, err
	}
	logger.Info("Quest assigned", "hero", req.HeroID, "kind", q.Kind, "id", q.ID, "seed", seed)
	return s.questResponse(req, q, p)
}

func (s *Server) show(ctx context.Context, req *Request) (*Response, error) {
	rec, err := s.db.LoadQuest(ctx, req.HeroID, s.quests)
	if err != nil {
		return nil, err
	}
	return s.questResponse(req, rec.Quest, rec.Progress)
}

func (s *Server) step(ctx context.Context, req *Request) (*Response, error) {
	rec, err := s.db.LoadQuest(ctx, req.HeroID, s.quests)
	if err != nil {
		return nil, err
	}

	line, err := s.lexicon.RenderStep(rec.Quest, rec.Progress)
	if err != nil {
		return nil, err
	}
	done, err := rec.Progress.Advance(rec.Quest)
	if err != nil {
		return nil, err
	}

	if done {
		if err := s.db.DeleteQuest(ctx, req.HeroID); err != nil {
			return nil, err
		}
		logger.Info("Quest completed", "hero", req.HeroID, "kind", rec.Kind, "id", rec.QuestID)
	} else if err := s.db.SaveProgress(ctx, req.HeroID, rec.Progress); err != nil {
		return nil, err
	}

	return &Response{Op: req.Op, HeroID: req.HeroID, Step: line, Done: done}, nil
}

func (s *Server) questResponse(req *Request, q *quest.Quest, p *quest.Progress) (*Response, error) {
	payload, err := quest.Marshal(q)
	if err != nil {
		return nil, err
	}
	narration, err := s.lexicon.RenderAll(q)
	if err != nil {
		return nil, err
	}
	resp := &Response{Op: req.Op, HeroID: req.HeroID, Quest: payload, Narration: narration, Done: p.Done}
	if !p.Done {
		if resp.Step, err = s.lexicon.RenderStep(q, p); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// errorResponse reports err to the client without leaking internal detail for
// unexpected failures.
func errorResponse(req *Request, err error) *Response {
	resp := &Response{Error: err.Error()}
	if req != nil {
		resp.Op = req.Op
		resp.HeroID = req.HeroID
	}

	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, quest.ErrNoQuestAvailable),
		errors.Is(err, quest.ErrConstraintUnsatisfiable):
	case errors.Is(err, database.ErrNotFound):
		resp.Error = "no active quest"
	case errors.Is(err, quest.ErrCorruptQuest):
		resp.Error = "stored quest is corrupt; abandon it to continue"
	default:
		resp.Error = "internal error"
	}
	return resp
}
