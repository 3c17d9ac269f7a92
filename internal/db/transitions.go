package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/pipeline-board/internal/types"
)

// AppendHistory inserts one transition event. Events are never updated or deleted.
func (db *DB) AppendHistory(ctx context.Context, event types.TransitionEvent) error {
	_, err := db.pool.Exec(ctx, insertEventSQL,
		event.ID, event.ApplicationID, event.FromStage, event.ToStage, event.Actor, event.Note, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to append history for %s: %w", event.ApplicationID, err)
	}
	return nil
}

// CommitTransition updates the stage and appends its event in one transaction.
func (db *DB) CommitTransition(ctx context.Context, event types.TransitionEvent) (*types.ApplicationRecord, error) {
	var rec *types.ApplicationRecord
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		var err error
		rec, err = commitStage(ctx, tx, event.ApplicationID, event.ToStage)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertEventSQL,
			event.ID, event.ApplicationID, event.FromStage, event.ToStage, event.Actor, event.Note, event.OccurredAt); err != nil {
			return fmt.Errorf("failed to append history for %s: %w", event.ApplicationID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListHistory returns the events of one application, oldest first
func (db *DB) ListHistory(ctx context.Context, applicationID string) ([]types.TransitionEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, application_id, from_stage, to_stage, actor, note, occurred_at
		 FROM transition_events WHERE application_id = $1
		 ORDER BY occurred_at, id`,
		applicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var events []types.TransitionEvent
	for rows.Next() {
		var ev types.TransitionEvent
		if err := rows.Scan(&ev.ID, &ev.ApplicationID, &ev.FromStage, &ev.ToStage, &ev.Actor, &ev.Note, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return events, nil
}

const insertEventSQL = `INSERT INTO transition_events (id, application_id, from_stage, to_stage, actor, note, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
