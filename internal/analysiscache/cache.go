// Package analysiscache caches the LLM fit analysis of a (profile, job)
// pair so the costly reasoning step is never repeated for jobs already
// evaluated against that profile. Records are write-once: a cache hit never
// triggers re-analysis, even if the underlying posting changed after it was
// cached. Staleness is an accepted cost/space tradeoff; a new profile
// version starts with a cold cache because its keys differ.
package analysiscache

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"cv-job-matcher/internal/match"
	"cv-job-matcher/internal/store"
)

type Cache struct {
	store  store.Store
	logger *zap.Logger
}

func New(s store.Store, logger *zap.Logger) *Cache {
	return &Cache{store: s, logger: logger}
}

// Partition splits the jobs into cached analyses (hits) and jobs still
// requiring analysis (misses) for the given profile. Both outputs preserve
// the relative order of the input. A stored record that fails to decode is
// treated as a miss so the pair gets re-analyzed instead of failing the run.
func (c *Cache) Partition(ctx context.Context, jobs match.RawJobs, profileID string) (match.Analyses, match.RawJobs, error) {
	if profileID == "" {
		return nil, nil, fmt.Errorf("profile id is required to derive cache keys")
	}

	hits := make(match.Analyses, 0, len(jobs))
	misses := make(match.RawJobs, 0, len(jobs))

	for _, job := range jobs {
		if job.JobURL == "" {
			return nil, nil, fmt.Errorf("job %q has no URL to derive a cache key", job.Title)
		}

		key := match.AnalysisKey(profileID, job.JobURL)
		result, err := c.store.Get(ctx, []string{key})
		if err != nil {
			return nil, nil, fmt.Errorf("cache lookup for %q: %w", key, err)
		}

		if result.Len() == 0 {
			misses = append(misses, job)
			continue
		}

		analysis, err := decodeRecord(result.Metadatas[0])
		if err != nil {
			c.logger.Warn("cached analysis is unreadable, re-analyzing",
				zap.String("key", key),
				zap.Error(err),
			)
			misses = append(misses, job)
			continue
		}

		c.logger.Debug("analysis cache hit",
			zap.String("job_url", job.JobURL),
			zap.String("title", job.Title),
		)
		hits = append(hits, analysis)
	}

	c.logger.Info("partitioned jobs against analysis cache",
		zap.String("profile_id", profileID),
		zap.Int("hits", hits.Len()),
		zap.Int("misses", misses.Len()),
	)

	return hits, misses, nil
}

// Store persists freshly produced analyses under composite
// (profile, job URL) keys. Callers must pass only the analyses computed for
// this run's miss set, with each JobURL equal to the posting it analyzes;
// the cache derives keys from the attached URL and does not re-check that
// equality. Existing keys are left untouched.
func (c *Cache) Store(ctx context.Context, analyses match.Analyses, userID, profileID string) error {
	if len(analyses) == 0 {
		return nil
	}
	if profileID == "" {
		return fmt.Errorf("profile id is required to derive cache keys")
	}

	texts := make([]string, 0, len(analyses))
	metadatas := make([]map[string]any, 0, len(analyses))
	ids := make([]string, 0, len(analyses))

	for _, analysis := range analyses {
		if analysis.JobURL == "" {
			return fmt.Errorf("analysis %q has no job URL to derive a cache key", analysis.Title)
		}

		payload, err := json.Marshal(analysis)
		if err != nil {
			return fmt.Errorf("encode analysis for %q: %w", analysis.JobURL, err)
		}

		texts = append(texts, analysis.JobSummary)
		metadatas = append(metadatas, map[string]any{
			"user_id":       userID,
			"profile_id":    profileID,
			"job_url":       analysis.JobURL,
			"analysis_json": string(payload),
		})
		ids = append(ids, match.AnalysisKey(profileID, analysis.JobURL))
	}

	if err := c.store.AddTexts(ctx, texts, metadatas, ids); err != nil {
		return fmt.Errorf("store analyses: %w", err)
	}

	c.logger.Info("cached new analyses",
		zap.String("profile_id", profileID),
		zap.Int("count", analyses.Len()),
	)

	return nil
}

// ListForProfile returns every cached analysis for the given profile, in
// storage order.
func (c *Cache) ListForProfile(ctx context.Context, profileID string) (match.Analyses, error) {
	result, err := c.store.GetWhere(ctx, map[string]any{"profile_id": profileID})
	if err != nil {
		return nil, fmt.Errorf("list analyses for %q: %w", profileID, err)
	}

	analyses := make(match.Analyses, 0, result.Len())
	for i, meta := range result.Metadatas {
		analysis, err := decodeRecord(meta)
		if err != nil {
			c.logger.Warn("skipping unreadable cached analysis",
				zap.String("key", result.IDs[i]),
				zap.Error(err),
			)
			continue
		}
		analyses = append(analyses, analysis)
	}

	return analyses, nil
}

func decodeRecord(meta map[string]any) (*match.AnalysedJobMatch, error) {
	raw, ok := meta["analysis_json"].(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("record has no analysis payload")
	}

	var analysis match.AnalysedJobMatch
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis payload: %w", err)
	}
	return &analysis, nil
}
