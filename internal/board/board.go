package board

import (
	"context"

	"github.com/jonathan/pipeline-board/internal/history"
	"github.com/jonathan/pipeline-board/internal/stages"
	"github.com/jonathan/pipeline-board/internal/types"
)

// Options tunes a Board.
type Options struct {
	Policy          *stages.Policy
	Notifier        Notifier
	BulkConcurrency int
}

// Board bundles the store and its operations for one job.
type Board struct {
	Store     *Store
	Mutator   *Mutator
	Bulk      *BulkCoordinator
	Selection *Selection
}

// New wires a board over remote. History is written through logger.
func New(registry *stages.Registry, remote Remote, logger *history.Logger, opts Options) *Board {
	store := NewStore(registry, remote)
	return &Board{
		Store:     store,
		Mutator:   NewMutator(store, remote, logger, opts.Policy, opts.Notifier),
		Bulk:      NewBulkCoordinator(store, remote, logger, opts.Policy, opts.Notifier, opts.BulkConcurrency),
		Selection: NewSelection(),
	}
}

// Load fetches the board for jobID.
func (b *Board) Load(ctx context.Context, jobID string) (Snapshot, error) {
	return b.Store.Load(ctx, jobID)
}

// ResolveDrag maps a drag-end to a transition; see Store.ResolveDrag.
func (b *Board) ResolveDrag(activeID, overID string) (Transition, bool) {
	return b.Store.ResolveDrag(activeID, overID)
}

// ApplyTransition applies t optimistically; see Mutator.Apply.
func (b *Board) ApplyTransition(ctx context.Context, t Transition) (*Pending, error) {
	return b.Mutator.Apply(ctx, t)
}

// BulkApply moves the current selection to target; see BulkCoordinator.Apply.
func (b *Board) BulkApply(ctx context.Context, target string) (BulkResult, error) {
	return b.Bulk.Apply(ctx, b.Selection, target)
}

// Filter returns a filtered view of the current board.
func (b *Board) Filter(c types.FilterCriteria) View {
	return b.Store.View(c)
}

// Close waits for outstanding remote work and clears the selection.
func (b *Board) Close() {
	b.Mutator.Drain()
	b.Selection.Clear()
}
