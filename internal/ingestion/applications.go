// Package ingestion reads application import files and writes them to the system of record.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/schemas"
	"github.com/jonathan/pipeline-board/internal/stages"
	"github.com/jonathan/pipeline-board/internal/types"
)

// File is the on-disk shape of an application import.
type File struct {
	JobID        string                    `json:"job_id"`
	Applications []types.ApplicationRecord `json:"applications"`
}

// RecordError reports an import entry that failed validation.
type RecordError struct {
	Index int
	ID    string
	Cause error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("application %d (%s): %v", e.Index, e.ID, e.Cause)
}

func (e *RecordError) Unwrap() error {
	return e.Cause
}

// Inserter stores one application.
type Inserter interface {
	InsertApplication(ctx context.Context, rec *types.ApplicationRecord) error
}

// LoadFile reads and parses an import file. See Parse.
func LoadFile(path string, registry *stages.Registry) ([]types.ApplicationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	return Parse(data, registry, time.Now())
}

// Parse validates an import document against its schema, then fills in the job id,
// missing application ids and timestamps. Every record must pass field validation,
// carry a stage known to registry, and have a unique id.
func Parse(data []byte, registry *stages.Registry, now time.Time) ([]types.ApplicationRecord, error) {
	if err := schemas.ValidateApplicationImport(data); err != nil {
		return nil, err
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal import file: %w", err)
	}

	now = now.UTC()
	seen := make(map[string]bool, len(file.Applications))
	records := make([]types.ApplicationRecord, 0, len(file.Applications))
	for i, rec := range file.Applications {
		rec.JobID = file.JobID
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if rec.UpdatedAt.IsZero() {
			rec.UpdatedAt = rec.CreatedAt
		}

		if err := rec.Validate(); err != nil {
			return nil, &RecordError{Index: i, ID: rec.ID, Cause: err}
		}
		if !registry.IsValid(rec.Stage) {
			return nil, &RecordError{Index: i, ID: rec.ID, Cause: fmt.Errorf("unknown stage %q", rec.Stage)}
		}
		if seen[rec.ID] {
			return nil, &RecordError{Index: i, ID: rec.ID, Cause: fmt.Errorf("duplicate id")}
		}
		seen[rec.ID] = true
		records = append(records, rec)
	}
	return records, nil
}

// Import writes records in order and stops at the first failure.
// It returns the number of records written.
func Import(ctx context.Context, dst Inserter, records []types.ApplicationRecord) (int, error) {
	for i := range records {
		if err := dst.InsertApplication(ctx, &records[i]); err != nil {
			return i, fmt.Errorf("failed to import application %s: %w", records[i].ID, err)
		}
	}
	return len(records), nil
}
