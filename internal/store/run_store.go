package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/afgc/registry/internal/model"
)

// RunStore handles database operations for the publish run archive
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// EnsureSchema creates the run archive table when it does not exist. The
// archive is self-contained: a fresh database needs no separate migration
// step before the first publish.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS publish_runs (
			id              UUID PRIMARY KEY,
			generated_utc   TIMESTAMPTZ NOT NULL,
			record_count    INTEGER NOT NULL,
			entry_count     INTEGER NOT NULL,
			artifact_sha256 TEXT NOT NULL,
			duration_ms     BIGINT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure publish_runs schema: %w", err)
	}

	return nil
}

// InsertRun records one successful publish. A zero ID is assigned a fresh
// UUID.
func (s *RunStore) InsertRun(ctx context.Context, run *model.PublishRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	query := `
		INSERT INTO publish_runs (id, generated_utc, record_count, entry_count,
		                          artifact_sha256, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.GeneratedUTC,
		run.RecordCount,
		run.EntryCount,
		run.ArtifactSHA256,
		run.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert publish run: %w", err)
	}

	return nil
}

// ListRuns returns the most recent publish runs, newest first
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]model.PublishRun, error) {
	query := `
		SELECT id, generated_utc, record_count, entry_count,
		       artifact_sha256, duration_ms, created_at
		FROM publish_runs
		ORDER BY generated_utc DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list publish runs: %w", err)
	}
	defer rows.Close()

	var runs []model.PublishRun
	for rows.Next() {
		var r model.PublishRun
		if err := rows.Scan(
			&r.ID,
			&r.GeneratedUTC,
			&r.RecordCount,
			&r.EntryCount,
			&r.ArtifactSHA256,
			&r.DurationMS,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan publish run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate publish runs: %w", err)
	}

	return runs, nil
}

// GetLatest returns the most recent publish run, or nil when none exists
func (s *RunStore) GetLatest(ctx context.Context) (*model.PublishRun, error) {
	query := `
		SELECT id, generated_utc, record_count, entry_count,
		       artifact_sha256, duration_ms, created_at
		FROM publish_runs
		ORDER BY generated_utc DESC
		LIMIT 1
	`

	var r model.PublishRun
	err := s.db.QueryRowContext(ctx, query).Scan(
		&r.ID,
		&r.GeneratedUTC,
		&r.RecordCount,
		&r.EntryCount,
		&r.ArtifactSHA256,
		&r.DurationMS,
		&r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest publish run: %w", err)
	}

	return &r, nil
}
