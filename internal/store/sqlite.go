package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	text       TEXT NOT NULL DEFAULT '',
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);`

// DB is a sqlite-backed record database. Collections share one file.
type DB struct {
	pool *sql.DB
}

// Open opens (and migrates) the record database at the given path. Use
// ":memory:" for an ephemeral database.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// sqlite wants a single writer
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	if _, err := pool.ExecContext(ctx, schema); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate records table: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (d *DB) Close() error {
	if d == nil || d.pool == nil {
		return nil
	}
	return d.pool.Close()
}

// Collection returns a Store scoped to the named collection.
func (d *DB) Collection(name string) Store {
	return &collection{db: d.pool, name: name}
}

type collection struct {
	db   *sql.DB
	name string
}

func (c *collection) AddTexts(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) error {
	if len(texts) != len(ids) || len(metadatas) != len(ids) {
		return fmt.Errorf("texts, metadatas and ids must have equal length: %d/%d/%d",
			len(texts), len(metadatas), len(ids))
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("record id at position %d is empty", i)
		}

		meta, err := json.Marshal(metadatas[i])
		if err != nil {
			return fmt.Errorf("marshal metadata for %q: %w", id, err)
		}

		// First writer wins; re-adding an existing id is a no-op.
		_, err = c.db.ExecContext(ctx, `
INSERT OR IGNORE INTO records (collection, id, text, metadata, created_at)
VALUES (?, ?, ?, ?, ?);`,
			c.name, id, texts[i], string(meta), now,
		)
		if err != nil {
			return fmt.Errorf("insert record %q: %w", id, err)
		}
	}

	return nil
}

func (c *collection) Get(ctx context.Context, ids []string) (*Result, error) {
	if len(ids) == 0 {
		return &Result{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	args = append(args, c.name)
	for _, id := range ids {
		args = append(args, id)
	}

	query := fmt.Sprintf(
		`SELECT id, metadata FROM records WHERE collection = ? AND id IN (%s);`,
		placeholders,
	)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	defer rows.Close()

	found, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	// Reorder to request order, skipping missing ids.
	byID := make(map[string]map[string]any, found.Len())
	for i, id := range found.IDs {
		byID[id] = found.Metadatas[i]
	}

	result := &Result{}
	for _, id := range ids {
		if meta, ok := byID[id]; ok {
			result.IDs = append(result.IDs, id)
			result.Metadatas = append(result.Metadatas, meta)
		}
	}

	return result, nil
}

func (c *collection) GetWhere(ctx context.Context, where map[string]any) (*Result, error) {
	clauses := []string{"collection = ?"}
	args := []any{c.name}

	for key, value := range where {
		if !validFilterKey(key) {
			return nil, fmt.Errorf("invalid filter key: %q", key)
		}
		clauses = append(clauses, fmt.Sprintf("json_extract(metadata, '$.%s') = ?", key))
		args = append(args, value)
	}

	query := fmt.Sprintf(
		`SELECT id, metadata FROM records WHERE %s ORDER BY rowid;`,
		strings.Join(clauses, " AND "),
	)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get records by filter: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) (*Result, error) {
	result := &Result{}
	for rows.Next() {
		var id, rawMeta string
		if err := rows.Scan(&id, &rawMeta); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		var meta map[string]any
		if err := json.Unmarshal([]byte(rawMeta), &meta); err != nil {
			return nil, fmt.Errorf("decode metadata for %q: %w", id, err)
		}

		result.IDs = append(result.IDs, id)
		result.Metadatas = append(result.Metadatas, meta)
	}

	return result, rows.Err()
}

func validFilterKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
