package store

import (
	"context"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestAddAndGetPreservesRequestOrder(t *testing.T) {
	ctx := context.Background()
	jobs := openTestDB(t).Collection("jobs")

	err := jobs.AddTexts(ctx,
		[]string{"first text", "second text"},
		[]map[string]any{{"title": "A"}, {"title": "B"}},
		[]string{"u1", "u2"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := jobs.Get(ctx, []string{"u2", "missing", "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", result.Len())
	}
	if result.IDs[0] != "u2" || result.IDs[1] != "u1" {
		t.Fatalf("expected request order u2,u1, got %v", result.IDs)
	}
	if result.Metadatas[1]["title"] != "A" {
		t.Fatalf("unexpected metadata: %v", result.Metadatas[1])
	}
}

func TestFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	jobs := openTestDB(t).Collection("jobs")

	if err := jobs.AddTexts(ctx, []string{"t"}, []map[string]any{{"title": "original"}}, []string{"u1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := jobs.AddTexts(ctx, []string{"t"}, []map[string]any{{"title": "modified"}}, []string{"u1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := jobs.Get(ctx, []string{"u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 1 {
		t.Fatalf("expected exactly 1 record, got %d", result.Len())
	}
	if result.Metadatas[0]["title"] != "original" {
		t.Fatalf("expected the original record to win, got %v", result.Metadatas[0])
	}
}

func TestGetWhereMatchesMetadataFields(t *testing.T) {
	ctx := context.Background()
	analyses := openTestDB(t).Collection("analyses")

	err := analyses.AddTexts(ctx,
		[]string{"", "", ""},
		[]map[string]any{
			{"profile_id": "p1", "job_url": "u1"},
			{"profile_id": "p1", "job_url": "u2"},
			{"profile_id": "p2", "job_url": "u1"},
		},
		[]string{"p1:u1", "p1:u2", "p2:u1"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := analyses.GetWhere(ctx, map[string]any{"profile_id": "p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 2 {
		t.Fatalf("expected 2 records for p1, got %d", result.Len())
	}

	result, err = analyses.GetWhere(ctx, map[string]any{"profile_id": "p1", "job_url": "u2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 1 || result.IDs[0] != "p1:u2" {
		t.Fatalf("expected single p1:u2 record, got %v", result.IDs)
	}
}

func TestGetWhereRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	c := openTestDB(t).Collection("jobs")

	if _, err := c.GetWhere(ctx, map[string]any{"title') OR 1=1 --": "x"}); err == nil {
		t.Fatal("expected an error for unsafe filter key")
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	jobs := db.Collection("jobs")
	profiles := db.Collection("profiles")

	if err := jobs.AddTexts(ctx, []string{"t"}, []map[string]any{{"k": "v"}}, []string{"id1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := profiles.Get(ctx, []string{"id1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 0 {
		t.Fatalf("expected no records in other collection, got %d", result.Len())
	}
}

func TestAddTextsLengthMismatch(t *testing.T) {
	ctx := context.Background()
	c := openTestDB(t).Collection("jobs")

	if err := c.AddTexts(ctx, []string{"a", "b"}, []map[string]any{{}}, []string{"id1"}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
