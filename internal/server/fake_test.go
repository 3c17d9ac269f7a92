package server

import (
	"context"
	"errors"
	"sync"

	"github.com/jonathan/pipeline-board/internal/db"
	"github.com/jonathan/pipeline-board/internal/types"
)

// fakeBackend is an in-memory Backend.
type fakeBackend struct {
	mu         sync.Mutex
	order      []string
	records    map[string]types.ApplicationRecord
	events     []types.TransitionEvent
	listErr    error
	pingErr    error
	failCommit map[string]error
	gate       chan struct{}
}

func newFakeBackend(records ...types.ApplicationRecord) *fakeBackend {
	f := &fakeBackend{
		records:    make(map[string]types.ApplicationRecord),
		failCommit: make(map[string]error),
	}
	for _, r := range records {
		f.order = append(f.order, r.ID)
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeBackend) ListApplications(_ context.Context, jobID string) ([]types.ApplicationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []types.ApplicationRecord
	for _, id := range f.order {
		if rec := f.records[id]; rec.JobID == jobID {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (f *fakeBackend) CommitStage(_ context.Context, applicationID, stageID string) (*types.ApplicationRecord, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failCommit[applicationID]; err != nil {
		return nil, err
	}
	rec, ok := f.records[applicationID]
	if !ok {
		return nil, db.ErrApplicationNotFound
	}
	rec.Stage = stageID
	f.records[applicationID] = rec
	out := rec.Clone()
	return &out, nil
}

func (f *fakeBackend) AppendHistory(_ context.Context, event types.TransitionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeBackend) ListHistory(_ context.Context, applicationID string) ([]types.TransitionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.TransitionEvent
	for _, ev := range f.events {
		if ev.ApplicationID == applicationID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeBackend) Ping(_ context.Context) error {
	return f.pingErr
}

func (f *fakeBackend) stageOf(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id].Stage
}

func (f *fakeBackend) history() []types.TransitionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.TransitionEvent(nil), f.events...)
}

// atomicBackend commits stage and audit record through CommitTransition.
type atomicBackend struct {
	*fakeBackend
	atomicCalls int
}

func (a *atomicBackend) CommitTransition(ctx context.Context, event types.TransitionEvent) (*types.ApplicationRecord, error) {
	rec, err := a.CommitStage(ctx, event.ApplicationID, event.ToStage)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.atomicCalls++
	a.events = append(a.events, event)
	a.mu.Unlock()
	return rec, nil
}

var errCommitRejected = errors.New("commit rejected")

const testJob = "job-1"

func app(id, stage string) types.ApplicationRecord {
	return types.ApplicationRecord{
		ID:     id,
		JobID:  testJob,
		Name:   "Candidate " + id,
		Email:  id + "@example.com",
		Stage:  stage,
		Score:  50,
		Source: "referral",
	}
}
