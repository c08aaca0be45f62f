// Package store keeps the SQLite translation memory and the log of served
// requests.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/jatran/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; serialise access instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_requests (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		translation TEXT NOT NULL,
		model TEXT NOT NULL,
		cache_hit BOOLEAN DEFAULT FALSE,
		latency_ms INTEGER,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		model TEXT NOT NULL,
		translation TEXT NOT NULL,
		usage_count INTEGER DEFAULT 1,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, model)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, model);
	CREATE INDEX IF NOT EXISTS idx_requests_created ON translation_requests(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRequest appends one served request to the request log.
func (s *Store) SaveRequest(ctx context.Context, rec internal.RequestRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_requests (id, source_text, translation, model, cache_hit, latency_ms, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SourceText, rec.Translation, rec.Model, rec.CacheHit, rec.LatencyMs, rec.Error, rec.Timestamp)
	return err
}

// ListRequests returns the most recent request records, newest first.
func (s *Store) ListRequests(ctx context.Context, limit int) ([]internal.RequestRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, translation, model, cache_hit, latency_ms, COALESCE(error, ''), created_at FROM translation_requests ORDER BY created_at DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []internal.RequestRecord
	for rows.Next() {
		var r internal.RequestRecord
		if err := rows.Scan(&r.ID, &r.SourceText, &r.Translation, &r.Model, &r.CacheHit, &r.LatencyMs, &r.Error, &r.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetCachedTranslation looks up sourceText for model and bumps its usage on a hit.
func (s *Store) GetCachedTranslation(ctx context.Context, sourceText, model string) (string, bool, error) {
	key := normalizeText(sourceText)

	var translation string
	err := s.db.QueryRowContext(ctx,
		`SELECT translation FROM translation_memory WHERE source_text = ? AND model = ?`,
		key, model).Scan(&translation)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND model = ?`,
		time.Now(), key, model)

	return translation, true, err
}

func (s *Store) SaveToMemory(ctx context.Context, sourceText, model, translation string) error {
	id := fmt.Sprintf("mem_%d", time.Now().UnixNano())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_text, model, translation, usage_count, last_used, created_at) VALUES (?, ?, ?, ?, 1, ?, ?)`,
		id, normalizeText(sourceText), model, translation, time.Now(), time.Now())
	return err
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID          string
	SourceText  string
	Model       string
	Translation string
	UsageCount  int
	LastUsed    time.Time
}

// CacheStats summarises translation memory and request log usage.
type CacheStats struct {
	TotalEntries   int
	TotalUsage     int
	TotalRequests  int
	CacheHits      int
	FailedRequests int
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("entry not found: %s", id)
	}
	return nil
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns all translation memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, model, translation, usage_count, last_used FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.Model, &e.Translation, &e.UsageCount, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN cache_hit THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN error IS NOT NULL AND error != '' THEN 1 ELSE 0 END), 0)
		FROM translation_requests`).Scan(
		&stats.TotalRequests,
		&stats.CacheHits,
		&stats.FailedRequests,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
