package trace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/docchat/docchat/internal/db"
	"github.com/docchat/docchat/internal/schema"
)

// RunSummary is one row of the trace run index.
type RunSummary struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	UserMessage    string    `json:"user_message"`
	FinalAnswer    string    `json:"final_answer"`
	CitationCount  int       `json:"citation_count"`
	IterationCount int       `json:"iteration_count"`
	FilePath       string    `json:"file_path"`
}

// Store indexes saved traces in SQLite so they can be listed without
// scanning the traces directory. The trace file remains the source of
// truth and is never rewritten.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts an index row for a saved trace.
func (s *Store) Record(ctx context.Context, qt *schema.QueryTrace, filePath string) error {
	if qt == nil {
		return ErrNotStarted
	}

	iterations := 0
	if qt.Iteration1 != nil {
		iterations++
	}
	if qt.Iteration2 != nil {
		iterations++
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trace_runs (
			run_id, user_message, final_answer,
			citation_count, iteration_count, file_path
		) VALUES (?, ?, ?, ?, ?, ?)`,
		qt.RunID,
		qt.UserMessage,
		qt.FinalAnswer,
		len(qt.CitationsUsed),
		iterations,
		filePath,
	)
	if err != nil {
		return fmt.Errorf("inserting trace run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, started_at, user_message, final_answer,
		       citation_count, iteration_count, file_path
		FROM trace_runs
		ORDER BY run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying trace runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.UserMessage, &r.FinalAnswer,
			&r.CitationCount, &r.IterationCount, &r.FilePath); err != nil {
			return nil, fmt.Errorf("scanning trace run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns the index row for one run, or nil if absent.
func (s *Store) Get(ctx context.Context, runID string) (*RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, user_message, final_answer,
		       citation_count, iteration_count, file_path
		FROM trace_runs WHERE run_id = ?`, runID)

	var r RunSummary
	err := row.Scan(&r.RunID, &r.StartedAt, &r.UserMessage, &r.FinalAnswer,
		&r.CitationCount, &r.IterationCount, &r.FilePath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying trace run %s: %w", runID, err)
	}
	return &r, nil
}
