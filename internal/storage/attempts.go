package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/pipeline"
)

// Attempt is one journal row.
type Attempt struct {
	FinishedAt time.Time
	StartedAt  *time.Time
	Elapsed    *float64
	AttemptID  string
	Stage      string
	Phase      string
	Message    string
	ID         int64
}

// AttemptFilter narrows ListAttempts. Zero values match everything.
type AttemptFilter struct {
	Stage string
	Limit int
}

// Record appends a finished attempt. It satisfies pipeline.Recorder.
func (s *SQLiteStorage) Record(ctx context.Context, entry pipeline.Entry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(entry.AttemptID, "attemptID"); err != nil {
		return err
	}
	if !entry.Stage.Valid() {
		return fmt.Errorf("%w: stage %d", ErrInvalidRow, int(entry.Stage))
	}

	var started sql.NullTime
	if !entry.StartedAt.IsZero() {
		started = sql.NullTime{Time: entry.StartedAt.UTC(), Valid: true}
	}
	var elapsed sql.NullFloat64
	if entry.Elapsed != nil {
		elapsed = sql.NullFloat64{Float64: *entry.Elapsed, Valid: true}
	}
	finished := entry.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (attempt_id, stage, phase, message, elapsed_seconds, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(attempt_id) DO UPDATE SET
			phase = excluded.phase,
			message = excluded.message,
			elapsed_seconds = excluded.elapsed_seconds,
			finished_at = excluded.finished_at
	`, entry.AttemptID, entry.Stage.String(), entry.Phase.String(), entry.Message, elapsed, started, finished.UTC())
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// ListAttempts returns attempts newest first.
func (s *SQLiteStorage) ListAttempts(ctx context.Context, filter AttemptFilter) ([]Attempt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, attempt_id, stage, phase, COALESCE(message, ''), elapsed_seconds, started_at, finished_at
		FROM attempts`
	var args []any
	if filter.Stage != "" {
		query += ` WHERE stage = ?`
		args = append(args, filter.Stage)
	}
	query += ` ORDER BY finished_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var attempts []Attempt
	for rows.Next() {
		var (
			a       Attempt
			elapsed sql.NullFloat64
			started sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.Stage, &a.Phase, &a.Message, &elapsed, &started, &a.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		if elapsed.Valid {
			v := elapsed.Float64
			a.Elapsed = &v
		}
		if started.Valid {
			v := started.Time
			a.StartedAt = &v
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attempts: %w", err)
	}

	return attempts, nil
}
