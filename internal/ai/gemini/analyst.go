package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"cv-job-matcher/internal/logger"
	"cv-job-matcher/internal/match"
)

//go:embed analyse_prompt.md
var analysePromptTemplate string

// Analyst scores the supplied jobs against a candidate profile with Gemini.
type Analyst struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewAnalyst(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Analyst {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Analyst{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Analyst) Analyse(ctx context.Context, profile *match.CandidateProfile, jobs match.RawJobs) (match.Analyses, error) {
	if profile == nil {
		return nil, errors.New("a candidate profile is required for analysis")
	}
	if jobs.Len() == 0 {
		return nil, errors.New("at least one job is required for analysis")
	}

	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	jobsJSON, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal jobs payload: %w", err)
	}

	prompt := fillTemplate(analysePromptTemplate, map[string]string{
		"PROFILE_JSON": string(profileJSON),
		"JOBS_JSON":    string(jobsJSON),
	})

	a.logger.Debug("fit analysis request",
		zap.Int("jobs", jobs.Len()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("fit analysis response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	var parsed struct {
		Jobs match.Analyses `json:"jobs"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse fit analysis response: %w", err)
	}

	for _, analysis := range parsed.Jobs {
		analysis.TopApplicantScore = clampScore(analysis.TopApplicantScore)
		if analysis.Company == "" {
			analysis.Company = match.CompanyUnknown
		}
	}

	return parsed.Jobs, nil
}
