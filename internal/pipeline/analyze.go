package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cv-job-matcher/internal/match"
)

// analyzeStage scores the researched jobs against the profile. Cached
// analyses are reused as-is; only uncached jobs reach the analyst, and its
// output is checked against the jobs it was actually given before caching.
type analyzeStage struct{}

func (s *analyzeStage) Name() string { return "analyze" }

func (s *analyzeStage) Run(ctx context.Context, deps Deps, cfg *RunConfig, state *State) (*Update, error) {
	if state.Research.Len() == 0 {
		deps.Logger.Info("no jobs to analyze")
		return &Update{
			Messages: []Message{assistantMessage("No jobs found to analyze.")},
			Analyses: match.Analyses{},
		}, nil
	}

	hits, misses, err := deps.Cache.Partition(ctx, state.Research, state.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("partition against cache: %w", err)
	}

	var fresh match.Analyses
	if misses.Len() > 0 {
		produced, err := deps.Analyst.Analyse(ctx, state.Profile, misses)
		if err != nil {
			return nil, fmt.Errorf("analyze jobs: %w", err)
		}
		fresh = tracedAnalyses(produced, misses, deps.Logger)

		if err := deps.Cache.Store(ctx, fresh, cfg.UserID, state.ProfileID); err != nil {
			return nil, fmt.Errorf("cache analyses: %w", err)
		}
	}

	combined := make(match.Analyses, 0, hits.Len()+fresh.Len())
	combined = append(combined, hits...)
	combined = append(combined, fresh...)

	return &Update{
		Messages: []Message{assistantMessage(
			fmt.Sprintf("Analyzed %d jobs (%d from cache, %d new).",
				combined.Len(), hits.Len(), fresh.Len()),
		)},
		Analyses: combined,
	}, nil
}

// tracedAnalyses drops any analysis whose URL does not match a job the
// analyst was given. Everything cached must trace back to a real posting.
func tracedAnalyses(produced match.Analyses, given match.RawJobs, log *zap.Logger) match.Analyses {
	known := make(map[string]struct{}, given.Len())
	for _, job := range given {
		known[job.JobURL] = struct{}{}
	}

	kept := make(match.Analyses, 0, produced.Len())
	for _, analysis := range produced {
		if _, ok := known[analysis.JobURL]; !ok {
			log.Warn("dropping analysis for unknown job",
				zap.String("job_url", analysis.JobURL),
				zap.String("title", analysis.Title),
			)
			continue
		}
		kept = append(kept, analysis)
	}
	return kept
}
