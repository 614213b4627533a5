package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cv-job-matcher/internal/ai"
	"cv-job-matcher/internal/match"
)

// defaultLocation is the search fallback when neither the run config nor
// the profile names one.
const defaultLocation = "Remote"

// researchStage finds postings for the profile and deduplicates them
// against the global job library.
type researchStage struct{}

func (s *researchStage) Name() string { return "research" }

func (s *researchStage) Run(ctx context.Context, deps Deps, cfg *RunConfig, state *State) (*Update, error) {
	profileID := state.ProfileID
	if profileID == "" {
		profileID = cfg.ProfileID
	}
	if profileID == "" {
		return nil, fmt.Errorf("no profile available: supply a cv or a profile id")
	}

	profile := state.Profile
	if profile == nil {
		fetched, err := deps.Profiles.Fetch(ctx, profileID)
		if err != nil {
			return nil, fmt.Errorf("load profile %q: %w", profileID, err)
		}
		profile = fetched
	}

	location := resolveLocation(cfg, profile)

	deps.Logger.Info("researching jobs",
		zap.String("profile_id", profileID),
		zap.String("role", cfg.Role),
		zap.String("location", location),
	)

	scraped, err := deps.Researcher.Research(ctx, &ai.ResearchRequest{
		Profile:  profile,
		Role:     cfg.Role,
		Location: location,
	})
	if err != nil {
		return nil, fmt.Errorf("research jobs: %w", err)
	}

	resolved, err := deps.Library.ResolveOrStore(ctx, scraped)
	if err != nil {
		return nil, fmt.Errorf("deduplicate jobs: %w", err)
	}

	return &Update{
		Messages: []Message{assistantMessage(
			fmt.Sprintf("Found %d unique jobs near %s.", resolved.Len(), location),
		)},
		Profile:   profile,
		ProfileID: profileID,
		Research:  resolved,
	}, nil
}

// resolveLocation picks the search location: an explicit run override wins,
// then the profile's own location, then the fallback.
func resolveLocation(cfg *RunConfig, profile *match.CandidateProfile) string {
	if cfg.Location != "" {
		return cfg.Location
	}
	if profile.CurrentLocation != "" {
		return profile.CurrentLocation
	}
	return defaultLocation
}
