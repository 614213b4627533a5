// Package store provides the persistent keyed record store backing the job
// library, the analysis cache and the profile store. Records carry a
// searchable text and a metadata document; the rest of the system uses
// exact-key and metadata-filter lookups exclusively.
package store

import "context"

// Result holds the ids and metadata documents matched by a lookup, in
// matching positions.
type Result struct {
	IDs       []string
	Metadatas []map[string]any
}

func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.IDs)
}

// Store is a keyed record collection. AddTexts never overwrites: the first
// writer of an id wins and later writes to the same id are silently dropped.
type Store interface {
	// Get returns the records with the given ids, in request order. Missing
	// ids are skipped, not errors.
	Get(ctx context.Context, ids []string) (*Result, error)

	// GetWhere returns the records whose metadata matches every key/value
	// pair of the filter, in insertion order.
	GetWhere(ctx context.Context, where map[string]any) (*Result, error)

	// AddTexts stores the given texts with their metadata under the given
	// ids. The three slices must have equal length.
	AddTexts(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) error
}
