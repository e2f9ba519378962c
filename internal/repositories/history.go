// package repositories provides the persistence layer for request history.
//
// History is best-effort bookkeeping: the orchestrator records each request
// so continue mode and the history command can see what was asked and what
// happened, but a write failure never fails a playback request.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/djx/internal/shared"
)

// RequestRecord is one handled music request.
type RequestRecord struct {
	ID          string    `json:"id"`
	RawText     string    `json:"raw_text"`
	SearchQuery string    `json:"search_query"`
	SourceModel string    `json:"source_model"` // empty for keyword fallback
	Outcome     string    `json:"outcome"`
	Track       string    `json:"track"`
	Device      string    `json:"device"`
	CreatedAt   time.Time `json:"created_at"`
}

const historySchema = `
CREATE TABLE IF NOT EXISTS requests (
	id            TEXT PRIMARY KEY,
	raw_text      TEXT NOT NULL,
	search_query  TEXT NOT NULL,
	source_model  TEXT NOT NULL DEFAULT '',
	outcome       TEXT NOT NULL,
	track         TEXT NOT NULL DEFAULT '',
	device        TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at);
`

// HistoryRepository stores request records in SQLite.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a repository over an open database connection.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Init creates the history schema if it does not exist.
func (r *HistoryRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, historySchema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// Record inserts one request record, assigning an id and timestamp when unset.
func (r *HistoryRepository) Record(ctx context.Context, rec RequestRecord) error {
	if rec.ID == "" {
		rec.ID = shared.GenerateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO requests (id, raw_text, search_query, source_model, outcome, track, device, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RawText, rec.SearchQuery, rec.SourceModel, rec.Outcome, rec.Track, rec.Device, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}

	return nil
}

// Recent returns up to limit records, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]RequestRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, raw_text, search_query, source_model, outcome, track, device, created_at
		 FROM requests ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// LastPlayed returns the most recent record whose outcome was a successful
// play, or (nil, nil) if none exists yet.
func (r *HistoryRepository) LastPlayed(ctx context.Context) (*RequestRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, raw_text, search_query, source_model, outcome, track, device, created_at
		 FROM requests WHERE outcome = 'played' ORDER BY created_at DESC, id DESC LIMIT 1`)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last played request: %w", err)
	}

	return rec, nil
}

// QueriesFor returns the distinct search queries previously used for a raw
// request, newest first. Continue mode feeds these to the model as
// exclusions.
func (r *HistoryRepository) QueriesFor(ctx context.Context, rawText string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT search_query FROM requests
		 WHERE raw_text = ? AND search_query != ''
		 ORDER BY search_query`, rawText)
	if err != nil {
		return nil, fmt.Errorf("failed to query used searches: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan query row: %w", err)
		}
		queries = append(queries, q)
	}

	return queries, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for record scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*RequestRecord, error) {
	var rec RequestRecord
	err := s.Scan(&rec.ID, &rec.RawText, &rec.SearchQuery, &rec.SourceModel,
		&rec.Outcome, &rec.Track, &rec.Device, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]RequestRecord, error) {
	var records []RequestRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
