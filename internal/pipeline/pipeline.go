// Package pipeline wires the three-stage CV-to-jobs flow: parse the CV
// into a profile, research matching postings, then analyze candidate fit.
// Stages run strictly in order and each one merges a partial update into
// the shared state; the first stage error aborts the run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cv-job-matcher/internal/ai"
	"cv-job-matcher/internal/analysiscache"
	"cv-job-matcher/internal/library"
	"cv-job-matcher/internal/logger"
	"cv-job-matcher/internal/profiles"
)

// Stage is a single step of the run.
type Stage interface {
	Name() string
	Run(ctx context.Context, deps Deps, cfg *RunConfig, state *State) (*Update, error)
}

// Deps aggregates the collaborators shared across all stages.
type Deps struct {
	Extractor  ai.Extractor
	Researcher ai.Researcher
	Analyst    ai.Analyst
	Profiles   *profiles.Store
	Library    *library.Library
	Cache      *analysiscache.Cache
	Logger     *zap.Logger
}

// RunConfig carries the per-run inputs.
type RunConfig struct {
	// RawCV is the plain CV text. When empty the parse stage is skipped
	// and ProfileID must point at a previously saved profile.
	RawCV     string
	UserID    string
	Role      string
	Location  string
	ProfileID string
}

type Pipeline struct {
	deps   Deps
	stages []Stage
}

func New(deps Deps) (*Pipeline, error) {
	switch {
	case deps.Extractor == nil:
		return nil, fmt.Errorf("extractor is required")
	case deps.Researcher == nil:
		return nil, fmt.Errorf("researcher is required")
	case deps.Analyst == nil:
		return nil, fmt.Errorf("analyst is required")
	case deps.Profiles == nil:
		return nil, fmt.Errorf("profile store is required")
	case deps.Library == nil:
		return nil, fmt.Errorf("job library is required")
	case deps.Cache == nil:
		return nil, fmt.Errorf("analysis cache is required")
	}

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Pipeline{
		deps: deps,
		stages: []Stage{
			&parseStage{},
			&researchStage{},
			&analyzeStage{},
		},
	}, nil
}

// Run executes the stages in order and returns the final state. The
// returned state is valid only when err is nil.
func (p *Pipeline) Run(ctx context.Context, cfg *RunConfig) (*State, error) {
	runID := uuid.NewString()

	deps := p.deps
	deps.Logger = deps.Logger.With(zap.String(logger.FieldRunID, runID))

	state := &State{}
	if cfg.RawCV != "" {
		state.Messages = append(state.Messages, Message{Role: "user", Content: cfg.RawCV})
	}

	deps.Logger.Info("starting pipeline run",
		zap.String("user_id", cfg.UserID),
		zap.Bool("has_cv", cfg.RawCV != ""),
		zap.String("requested_profile_id", cfg.ProfileID),
	)

	for _, stage := range p.stages {
		update, err := stage.Run(ctx, deps, cfg, state)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", stage.Name(), err)
		}

		state.apply(update)

		deps.Logger.Info("stage completed",
			zap.String("stage", stage.Name()),
			zap.Int("jobs", state.Research.Len()),
			zap.Int("analyses", state.Analyses.Len()),
		)
	}

	return state, nil
}
