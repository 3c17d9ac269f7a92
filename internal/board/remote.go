package board

import (
	"context"

	"github.com/jonathan/pipeline-board/internal/types"
)

// Lister fetches every application for a job, in a stable order.
type Lister interface {
	ListApplications(ctx context.Context, jobID string) ([]types.ApplicationRecord, error)
}

// Committer sets an application's stage on the system of record.
// Committing the stage an application is already in must be a no-op.
type Committer interface {
	CommitStage(ctx context.Context, applicationID, stageID string) (*types.ApplicationRecord, error)
}

// AtomicCommitter commits a stage change and its audit record in one operation.
// When the remote implements it, the mutator skips the separate history append.
type AtomicCommitter interface {
	CommitTransition(ctx context.Context, event types.TransitionEvent) (*types.ApplicationRecord, error)
}

// Remote is the system of record the board reads from and writes to.
type Remote interface {
	Lister
	Committer
}
