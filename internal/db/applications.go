package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/pipeline-board/internal/types"
)

// ErrApplicationNotFound is returned when a commit targets a missing application.
var ErrApplicationNotFound = errors.New("application not found")

const applicationColumns = `id, job_id, candidate_name, candidate_email, stage, fit_score,
	source, starred, labels, metadata, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*types.ApplicationRecord, error) {
	var rec types.ApplicationRecord
	var metadataJSON []byte
	if err := row.Scan(&rec.ID, &rec.JobID, &rec.Name, &rec.Email, &rec.Stage, &rec.Score,
		&rec.Source, &rec.Star, &rec.Labels, &metadataJSON, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

// ListApplications returns every application of a job in creation order
func (db *DB) ListApplications(ctx context.Context, jobID string) ([]types.ApplicationRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications WHERE job_id = $1
		 ORDER BY created_at, id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var out []types.ApplicationRecord
	for rows.Next() {
		rec, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return out, nil
}

// GetApplication retrieves one application, or nil if it does not exist
func (db *DB) GetApplication(ctx context.Context, id string) (*types.ApplicationRecord, error) {
	rec, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return rec, nil
}

// InsertApplication stores a new application, or updates it if the id already exists
func (db *DB) InsertApplication(ctx context.Context, rec *types.ApplicationRecord) error {
	var metadataJSON []byte
	if rec.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}
	labels := rec.Labels
	if labels == nil {
		labels = []string{}
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO applications (id, job_id, candidate_name, candidate_email, stage, fit_score, source, starred, labels, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		     candidate_name = $3, candidate_email = $4, stage = $5, fit_score = $6,
		     source = $7, starred = $8, labels = $9, metadata = $10, updated_at = NOW()
		 RETURNING created_at, updated_at`,
		rec.ID, rec.JobID, rec.Name, rec.Email, rec.Stage, rec.Score, rec.Source, rec.Star, labels, metadataJSON,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert application %s: %w", rec.ID, err)
	}
	return nil
}

// CommitStage sets an application's stage. Setting the current stage is a no-op.
func (db *DB) CommitStage(ctx context.Context, applicationID, stageID string) (*types.ApplicationRecord, error) {
	return commitStage(ctx, db.pool, applicationID, stageID)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func commitStage(ctx context.Context, q querier, applicationID, stageID string) (*types.ApplicationRecord, error) {
	rec, err := scanApplication(q.QueryRow(ctx,
		`UPDATE applications
		 SET stage = $2,
		     updated_at = CASE WHEN stage = $2 THEN updated_at ELSE NOW() END
		 WHERE id = $1
		 RETURNING `+applicationColumns,
		applicationID, stageID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, applicationID)
		}
		return nil, fmt.Errorf("failed to commit stage for %s: %w", applicationID, err)
	}
	return rec, nil
}
