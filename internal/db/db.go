// Package db provides the optional PostgreSQL provenance ledger of generation runs.
package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Recorder stores the provenance of a run.
type Recorder interface {
	CreateRun(ctx context.Context, run *Run) error
	RecordArtifact(ctx context.Context, runID uuid.UUID, a *ArtifactRecord) error
	RecordFailure(ctx context.Context, runID uuid.UUID, f *FailureRecord) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status, outcome string, generated, total int) error
	Close()
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

var _ Recorder = (*DB)(nil)

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the ledger tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return nil
}

// CreateRun inserts a run record in the running state. run.ID must be set.
func (db *DB) CreateRun(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		return fmt.Errorf("failed to create run: run ID is empty")
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO generation_runs (id, dataset_path, templates_dir, output_dir, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING status, created_at`,
		run.ID, run.DatasetPath, run.TemplatesDir, run.OutputDir, RunStatusRunning,
	).Scan(&run.Status, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// RecordArtifact stores one generated document
func (db *DB) RecordArtifact(ctx context.Context, runID uuid.UUID, a *ArtifactRecord) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO generated_artifacts (run_id, counter, row_number, file_name, file_path, template)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (run_id, counter) DO UPDATE
		 SET row_number = $3, file_name = $4, file_path = $5, template = $6, created_at = NOW()`,
		runID, a.Counter, a.Row, a.FileName, a.FilePath, a.Template,
	)
	if err != nil {
		return fmt.Errorf("failed to record artifact %s: %w", a.FileName, err)
	}
	return nil
}

// RecordFailure stores one skipped record
func (db *DB) RecordFailure(ctx context.Context, runID uuid.UUID, f *FailureRecord) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO render_failures (run_id, row_number, kind, client, template, detail)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, f.Row, f.Kind, f.Client, f.Template, f.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to record failure for row %d: %w", f.Row, err)
	}
	return nil
}

// CompleteRun marks a run as finished with its final tally
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status, outcome string, generated, total int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE generation_runs
		 SET status = $1, outcome = NULLIF($2, ''), generated = $3, total = $4, completed_at = NOW()
		 WHERE id = $5`,
		status, outcome, generated, total, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil if the run does not exist.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, dataset_path, templates_dir, output_dir, status, outcome, generated, total, created_at, completed_at
		 FROM generation_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.DatasetPath, &run.TemplatesDir, &run.OutputDir, &run.Status,
		&run.Outcome, &run.Generated, &run.Total, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListArtifacts returns the documents of a run in generation order
func (db *DB) ListArtifacts(ctx context.Context, runID uuid.UUID) ([]ArtifactRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT counter, row_number, file_name, file_path, template, created_at
		 FROM generated_artifacts WHERE run_id = $1 ORDER BY counter`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []ArtifactRecord
	for rows.Next() {
		var a ArtifactRecord
		if err := rows.Scan(&a.Counter, &a.Row, &a.FileName, &a.FilePath, &a.Template, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return artifacts, nil
}

// ListFailures returns the skipped records of a run in row order
func (db *DB) ListFailures(ctx context.Context, runID uuid.UUID) ([]FailureRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT row_number, kind, client, template, detail, created_at
		 FROM render_failures WHERE run_id = $1 ORDER BY row_number, id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}
	defer rows.Close()

	var failures []FailureRecord
	for rows.Next() {
		var f FailureRecord
		if err := rows.Scan(&f.Row, &f.Kind, &f.Client, &f.Template, &f.Detail, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}
	return failures, nil
}

// NopRecorder discards everything. It is used when no database is configured.
type NopRecorder struct{}

var _ Recorder = NopRecorder{}

func (NopRecorder) CreateRun(context.Context, *Run) error { return nil }

func (NopRecorder) RecordArtifact(context.Context, uuid.UUID, *ArtifactRecord) error { return nil }

func (NopRecorder) RecordFailure(context.Context, uuid.UUID, *FailureRecord) error { return nil }

func (NopRecorder) CompleteRun(context.Context, uuid.UUID, string, string, int, int) error {
	return nil
}

func (NopRecorder) Close() {}
