// Package library holds the global, cross-user job library. It deduplicates
// freshly scraped postings against every posting ever seen, keyed by the
// canonical posting URL. The library is append-only: records are never
// updated or deleted, and the first stored version of a URL stays
// authoritative over any later re-scrape of the same posting.
package library

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cv-job-matcher/internal/match"
	"cv-job-matcher/internal/store"
)

type Library struct {
	store  store.Store
	logger *zap.Logger
}

func New(s store.Store, logger *zap.Logger) *Library {
	return &Library{store: s, logger: logger}
}

// ResolveOrStore collapses the candidate batch against the library. Output
// order follows input order with duplicate URLs collapsed to their
// first-seen position. URLs already in the library resolve to the stored
// record; new URLs are stored and the candidate passes through unchanged.
// Postings without a URL, or with neither title nor description, are
// dropped before storage.
//
// Concurrent runs against the same library are an unguarded race: the
// store's first-writer-wins insert keeps keys unique, but two processes may
// briefly disagree on which copy they emitted.
func (l *Library) ResolveOrStore(ctx context.Context, candidates match.RawJobs) (match.RawJobs, error) {
	seen := make(map[string]struct{}, len(candidates))
	resolved := make(match.RawJobs, 0, len(candidates))

	for _, candidate := range candidates {
		if !candidate.Acceptable() {
			l.logger.Debug("rejecting scraped posting",
				zap.String("job_url", candidate.JobURL),
				zap.String("reason", "missing url or content"),
			)
			continue
		}

		if _, ok := seen[candidate.JobURL]; ok {
			continue
		}
		seen[candidate.JobURL] = struct{}{}

		stored, err := l.Lookup(ctx, candidate.JobURL)
		if err != nil {
			return nil, err
		}

		if stored != nil {
			l.logger.Debug("posting already known, using stored record",
				zap.String("job_url", candidate.JobURL),
			)
			resolved = append(resolved, stored)
			continue
		}

		meta, err := candidate.Metadata()
		if err != nil {
			return nil, fmt.Errorf("encode posting %q: %w", candidate.JobURL, err)
		}

		err = l.store.AddTexts(ctx,
			[]string{candidate.Description},
			[]map[string]any{meta},
			[]string{candidate.JobURL},
		)
		if err != nil {
			return nil, fmt.Errorf("store posting %q: %w", candidate.JobURL, err)
		}

		resolved = append(resolved, candidate)
	}

	l.logger.Info("deduplicated scraped postings",
		zap.Int("scraped", candidates.Len()),
		zap.Int("resolved", resolved.Len()),
	)

	return resolved, nil
}

// Lookup returns the stored posting for the given URL, or nil when the URL
// has never been seen.
func (l *Library) Lookup(ctx context.Context, url string) (*match.RawJobMatch, error) {
	result, err := l.store.Get(ctx, []string{url})
	if err != nil {
		return nil, fmt.Errorf("lookup posting %q: %w", url, err)
	}

	if result.Len() == 0 {
		return nil, nil
	}

	return match.RawJobFromMetadata(result.Metadatas[0])
}
