package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"cv-job-matcher/internal/ai"
	"cv-job-matcher/internal/match"
	"cv-job-matcher/internal/serpapi"
)

//go:embed research_prompt.md
var researchPromptTemplate string

// maxSearchQueries bounds how many search-tool invocations one research run
// may issue.
const maxSearchQueries = 3

const defaultSearchDistance = 40

// jobScraper is the search tool the researcher drives. Satisfied by
// *serpapi.Client.
type jobScraper interface {
	ScrapeForJobs(ctx context.Context, roleKeywords, location string, distance int) (match.RawJobs, error)
}

// Researcher turns a candidate profile into scraped job postings: Gemini
// proposes search queries, the search tool executes them.
type Researcher struct {
	generator contentGenerator
	scraper   jobScraper
	logger    *zap.Logger
	distance  int
}

func NewResearcher(generator contentGenerator, scraper jobScraper, distance int, logger *zap.Logger) *Researcher {
	if distance <= 0 {
		distance = defaultSearchDistance
	}

	return &Researcher{
		generator: generator,
		scraper:   scraper,
		logger:    logger,
		distance:  distance,
	}
}

func (r *Researcher) Research(ctx context.Context, req *ai.ResearchRequest) (match.RawJobs, error) {
	if req == nil || req.Profile == nil {
		return nil, errors.New("a candidate profile is required for research")
	}
	if req.Location == "" {
		return nil, errors.New("a search location is required for research")
	}

	queries, err := r.buildQueries(ctx, req)
	if err != nil {
		return nil, err
	}

	var jobs match.RawJobs
	for _, query := range queries {
		found, err := r.scraper.ScrapeForJobs(ctx, query, req.Location, r.distance)
		if err != nil {
			// Running out of search budget is a legitimate stop, not a
			// failure: keep whatever was found so far.
			if errors.Is(err, serpapi.ErrBudgetExhausted) {
				r.logger.Info("search budget exhausted, stopping research",
					zap.Int("jobs_so_far", jobs.Len()),
				)
				break
			}
			return nil, fmt.Errorf("search %q: %w", query, err)
		}

		r.logger.Info("search query completed",
			zap.String("query", query),
			zap.String("location", req.Location),
			zap.Int("found", found.Len()),
		)

		jobs = append(jobs, found...)
	}

	return jobs, nil
}

func (r *Researcher) buildQueries(ctx context.Context, req *ai.ResearchRequest) ([]string, error) {
	profileJSON, err := json.MarshalIndent(req.Profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	intent := "Find roles where the candidate profile would be a top applicant"
	if req.Role != "" {
		intent += " focused on " + req.Role
	}
	intent += " in " + req.Location

	prompt := fillTemplate(researchPromptTemplate, map[string]string{
		"PROFILE_JSON": string(profileJSON),
		"INTENT":       intent,
		"MAX_QUERIES":  strconv.Itoa(maxSearchQueries),
	})

	raw, err := r.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse research queries: %w", err)
	}

	queries := make([]string, 0, maxSearchQueries)
	for _, query := range parsed.Queries {
		if query = strings.TrimSpace(query); query == "" {
			continue
		}
		queries = append(queries, query)
		if len(queries) == maxSearchQueries {
			break
		}
	}

	if len(queries) == 0 {
		return nil, errors.New("research agent produced no search queries")
	}

	return queries, nil
}
