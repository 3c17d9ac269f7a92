package board

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/pipeline-board/internal/history"
	"github.com/jonathan/pipeline-board/internal/stages"
	"github.com/jonathan/pipeline-board/internal/types"
)

var errRemoteRejected = errors.New("remote rejected transition")

type commitCall struct {
	ApplicationID string
	Stage         string
}

// fakeRemote is an in-memory system of record.
type fakeRemote struct {
	mu         sync.Mutex
	order      []string
	records    map[string]types.ApplicationRecord
	commits    []commitCall
	listCalls  int
	listErr    error
	failCommit map[string]error

	// gate, when set, blocks every CommitStage until it is closed.
	gate      chan struct{}
	active    int
	maxActive int
}

func newFakeRemote(records ...types.ApplicationRecord) *fakeRemote {
	f := &fakeRemote{
		records:    make(map[string]types.ApplicationRecord),
		failCommit: make(map[string]error),
	}
	for _, r := range records {
		f.order = append(f.order, r.ID)
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeRemote) ListApplications(_ context.Context, jobID string) ([]types.ApplicationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]types.ApplicationRecord, 0, len(f.order))
	for _, id := range f.order {
		rec := f.records[id]
		if rec.JobID == jobID {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (f *fakeRemote) CommitStage(_ context.Context, applicationID, stageID string) (*types.ApplicationRecord, error) {
	f.mu.Lock()
	f.commits = append(f.commits, commitCall{ApplicationID: applicationID, Stage: stageID})
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.active--
	if err := f.failCommit[applicationID]; err != nil {
		return nil, err
	}
	rec, ok := f.records[applicationID]
	if !ok {
		return nil, errors.New("application not found")
	}
	rec.Stage = stageID
	f.records[applicationID] = rec
	out := rec.Clone()
	return &out, nil
}

func (f *fakeRemote) commitCalls() []commitCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]commitCall(nil), f.commits...)
}

func (f *fakeRemote) lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeRemote) setStage(id, stage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.records[id]
	rec.Stage = stage
	f.records[id] = rec
}

// atomicRemote also commits the audit record in the same call.
type atomicRemote struct {
	*fakeRemote
	events []types.TransitionEvent
}

func (a *atomicRemote) CommitTransition(ctx context.Context, event types.TransitionEvent) (*types.ApplicationRecord, error) {
	rec, err := a.CommitStage(ctx, event.ApplicationID, event.ToStage)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.events = append(a.events, event)
	a.mu.Unlock()
	return rec, nil
}

// failingAppender rejects every history append.
type failingAppender struct{}

func (failingAppender) AppendHistory(_ context.Context, _ types.TransitionEvent) error {
	return errors.New("audit store unavailable")
}

// recordingNotifier collects notifications.
type recordingNotifier struct {
	mu  sync.Mutex
	got []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.got...)
}

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

type fixture struct {
	remote   *fakeRemote
	log      *history.MemoryLog
	notes    *recordingNotifier
	board    *Board
	registry *stages.Registry
}

func newFixture(t *testing.T, registry *stages.Registry, records ...types.ApplicationRecord) *fixture {
	t.Helper()
	remote := newFakeRemote(records...)
	mem := history.NewMemoryLog()
	notes := &recordingNotifier{}
	b := New(registry, remote, history.NewLogger(mem), Options{Notifier: notes})

	_, err := b.Load(context.Background(), testJob)
	require.NoError(t, err)
	return &fixture{remote: remote, log: mem, notes: notes, board: b, registry: registry}
}

func threeStages(t *testing.T) *stages.Registry {
	t.Helper()
	r, err := stages.FromIDs("applied", "screening", "interview")
	require.NoError(t, err)
	return r
}
