package board

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/pipeline-board/internal/history"
	"github.com/jonathan/pipeline-board/internal/stages"
	"github.com/jonathan/pipeline-board/internal/types"
)

// DefaultBulkConcurrency caps simultaneous commit requests of one bulk action.
const DefaultBulkConcurrency = 8

// ItemResult is the outcome of one application inside a bulk action.
type ItemResult struct {
	ApplicationID string                   `json:"application_id"`
	From          string                   `json:"from,omitempty"`
	To            string                   `json:"to"`
	Record        *types.ApplicationRecord `json:"record,omitempty"`
	Err           error                    `json:"-"`
	Error         string                   `json:"error,omitempty"`
}

// Succeeded reports whether the item's commit was accepted.
func (r ItemResult) Succeeded() bool { return r.Err == nil }

// BulkResult summarises a bulk action.
type BulkResult struct {
	Target    string       `json:"target"`
	Items     []ItemResult `json:"items"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Snapshot  Snapshot     `json:"board"`
}

// BulkCoordinator moves every selected application to one stage. Each item is
// committed independently and concurrently; there is no local optimistic move.
// The board is reloaded once every request has settled.
type BulkCoordinator struct {
	store     *Store
	committer Committer
	history   *history.Logger
	policy    *stages.Policy
	notifier  Notifier
	limit     int
}

// NewBulkCoordinator wires a coordinator. limit <= 0 uses DefaultBulkConcurrency.
func NewBulkCoordinator(store *Store, committer Committer, logger *history.Logger, policy *stages.Policy, notifier Notifier, limit int) *BulkCoordinator {
	if limit <= 0 {
		limit = DefaultBulkConcurrency
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &BulkCoordinator{
		store:     store,
		committer: committer,
		history:   logger,
		policy:    policy,
		notifier:  notifier,
		limit:     limit,
	}
}

// Apply commits target for every id in sel, then reloads the board. The
// selection is cleared once requests are dispatched, whatever their outcome.
// Item failures are reported in the result, not as the returned error; the
// returned error covers an unknown target, a board that was never loaded,
// or a failed reload.
func (b *BulkCoordinator) Apply(ctx context.Context, sel *Selection, target string) (BulkResult, error) {
	if !b.store.Registry().IsValid(target) {
		return BulkResult{}, fmt.Errorf("%w: %s", ErrUnknownStage, target)
	}
	if !b.store.Loaded() {
		return BulkResult{}, ErrNotLoaded
	}

	ids := sel.IDs()
	result := BulkResult{Target: target, Items: make([]ItemResult, len(ids))}
	remoteCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(b.limit)
	for i, id := range ids {
		from, _ := b.store.StageOf(id)
		result.Items[i] = ItemResult{ApplicationID: id, From: from, To: target}

		if from != "" && from != target && !b.policy.Allows(from, target) {
			result.Items[i].Err = fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, target)
			continue
		}

		g.Go(func() error {
			item := &result.Items[i]
			item.Record, item.Err = b.commit(remoteCtx, item.ApplicationID, item.From, target)
			return nil
		})
	}
	sel.Clear()
	_ = g.Wait()

	for i := range result.Items {
		item := &result.Items[i]
		if item.Err != nil {
			item.Error = item.Err.Error()
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	snap, err := b.store.Reload(remoteCtx)
	result.Snapshot = snap
	var integrity *IntegrityError
	if err != nil && !errors.As(err, &integrity) {
		err = &Error{Message: "bulk action finished but board reload failed", Cause: err}
	}

	jobID := b.store.JobID()
	log.Printf("[bulk] job %s: moved %d/%d application(s) to %s", jobID, result.Succeeded, len(ids), target)
	b.notifier.Notify(Notification{
		Kind:    NotifyBulkCompleted,
		JobID:   jobID,
		To:      target,
		Message: fmt.Sprintf("%d moved, %d failed", result.Succeeded, result.Failed),
	})
	return result, err
}

func (b *BulkCoordinator) commit(ctx context.Context, id, from, target string) (*types.ApplicationRecord, error) {
	rec, err := b.committer.CommitStage(ctx, id, target)
	if err != nil {
		log.Printf("[bulk] commit %s -> %s failed: %v", id, target, err)
		return nil, err
	}
	if from != "" && from != target {
		_, _ = b.history.Record(ctx, id, from, target, "bulk")
	}
	return rec, nil
}
