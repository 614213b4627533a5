package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// parseStage turns the raw CV into a structured profile and persists it as
// a new profile version. When the run carries no CV the stage is skipped
// and the research stage works from a previously saved profile instead.
type parseStage struct{}

func (s *parseStage) Name() string { return "parse" }

func (s *parseStage) Run(ctx context.Context, deps Deps, cfg *RunConfig, _ *State) (*Update, error) {
	if cfg.RawCV == "" {
		deps.Logger.Info("no cv supplied, skipping parse stage")
		return nil, nil
	}

	if cfg.UserID == "" {
		return nil, fmt.Errorf("user id is required to save a parsed profile")
	}

	profile, err := deps.Extractor.Extract(ctx, cfg.RawCV)
	if err != nil {
		return nil, fmt.Errorf("extract profile: %w", err)
	}

	profileID, err := deps.Profiles.Save(ctx, cfg.UserID, profile)
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	deps.Logger.Info("parsed cv into profile",
		zap.String("profile_id", profileID),
		zap.String("full_name", profile.FullName),
	)

	return &Update{
		Messages: []Message{assistantMessage(
			fmt.Sprintf("Parsed CV for %s into profile %s.", profile.FullName, profileID),
		)},
		Profile:   profile,
		ProfileID: profileID,
	}, nil
}
