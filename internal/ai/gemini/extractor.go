package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"cv-job-matcher/internal/match"
)

//go:embed extract_prompt.md
var extractPromptTemplate string

// Extractor parses raw CV text into a CandidateProfile with Gemini.
type Extractor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

const defaultMaxLogLength = 200

func NewExtractor(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Extractor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (e *Extractor) Extract(ctx context.Context, cvText string) (*match.CandidateProfile, error) {
	cvText = strings.TrimSpace(cvText)
	if cvText == "" {
		return nil, errors.New("cv text is required")
	}

	prompt := fillTemplate(extractPromptTemplate, map[string]string{"CV_TEXT": cvText})

	e.logger.Debug("cv extraction request",
		zap.Int("cv_length", utf8.RuneCountInString(cvText)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var profile match.CandidateProfile
	if err := json.Unmarshal([]byte(extractJSON(raw)), &profile); err != nil {
		return nil, fmt.Errorf("parse cv extraction response: %w", err)
	}

	e.logger.Info("parsed candidate profile",
		zap.String("full_name", profile.FullName),
		zap.Int("years_of_experience", profile.YearsOfExperience),
		zap.String("seniority_level", profile.SeniorityLevel),
		zap.Strings("key_skills", profile.KeySkills),
	)

	return &profile, nil
}
