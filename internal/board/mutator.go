package board

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jonathan/pipeline-board/internal/history"
	"github.com/jonathan/pipeline-board/internal/stages"
	"github.com/jonathan/pipeline-board/internal/types"
)

// Outcome is the settled result of one optimistic transition.
type Outcome struct {
	Transition Transition
	// Record is the system of record's view after a successful commit.
	Record *types.ApplicationRecord
	// Err is the commit failure, if any. The local board has then been reloaded.
	Err error
	// ReconcileErr is set when the post-failure reload itself failed. The
	// local move has then been undone instead.
	ReconcileErr error
}

// Committed reports whether the remote accepted the transition.
func (o Outcome) Committed() bool { return o.Err == nil }

// Pending tracks a transition whose remote commit has not settled yet.
type Pending struct {
	Transition Transition
	done       chan struct{}
	outcome    Outcome
}

// Done is closed once the commit (and any reconciliation) has settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the transition settles and returns its outcome.
func (p *Pending) Wait() Outcome {
	<-p.done
	return p.outcome
}

// Mutator applies transitions to the local board first, then commits them
// remotely. A rejected commit discards the whole local board and reloads it.
//
// At most one transition per application may be in flight; a second one is
// rejected with ErrTransitionInFlight until the first settles.
type Mutator struct {
	store     *Store
	committer Committer
	history   *history.Logger
	policy    *stages.Policy
	notifier  Notifier

	mu       sync.Mutex
	inflight map[string]*Pending
	wg       sync.WaitGroup
}

// NewMutator wires a mutator. policy may be nil for an unrestricted pipeline;
// notifier may be nil to only log.
func NewMutator(store *Store, committer Committer, logger *history.Logger, policy *stages.Policy, notifier Notifier) *Mutator {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Mutator{
		store:     store,
		committer: committer,
		history:   logger,
		policy:    policy,
		notifier:  notifier,
		inflight:  make(map[string]*Pending),
	}
}

// Drag resolves a drag-end and applies it. A drag that resolves to nothing
// (stale item, unknown target, same stage) returns nil, nil and makes no call.
func (m *Mutator) Drag(ctx context.Context, activeID, overID string) (*Pending, error) {
	t, ok := m.store.ResolveDrag(activeID, overID)
	if !ok {
		return nil, nil
	}
	return m.Apply(ctx, t)
}

// MoveTo is the quick-action path: move an application to stage from wherever it is.
// Moving to the current stage returns nil, nil.
func (m *Mutator) MoveTo(ctx context.Context, applicationID, stage string) (*Pending, error) {
	from, ok := m.store.StageOf(applicationID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownApplication, applicationID)
	}
	if from == stage {
		return nil, nil
	}
	return m.Apply(ctx, Transition{ApplicationID: applicationID, From: from, To: stage})
}

// Apply mutates the local board synchronously and dispatches the remote commit
// and history append in the background. The returned Pending settles when the
// commit does. Remote calls are detached from ctx cancellation.
func (m *Mutator) Apply(ctx context.Context, t Transition) (*Pending, error) {
	reg := m.store.Registry()
	if !reg.IsValid(t.From) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, t.From)
	}
	if !reg.IsValid(t.To) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, t.To)
	}
	if t.From == t.To {
		return nil, fmt.Errorf("%w: %s is already in %s", ErrStaleTransition, t.ApplicationID, t.To)
	}
	if !m.policy.Allows(t.From, t.To) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, t.From, t.To)
	}

	p := &Pending{Transition: t, done: make(chan struct{})}

	m.mu.Lock()
	if _, busy := m.inflight[t.ApplicationID]; busy {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTransitionInFlight, t.ApplicationID)
	}
	m.inflight[t.ApplicationID] = p
	m.mu.Unlock()

	if err := m.store.move(t); err != nil {
		m.release(t.ApplicationID)
		return nil, err
	}

	jobID := m.store.JobID()
	event := m.history.NewEvent(t.ApplicationID, t.From, t.To)
	remoteCtx := context.WithoutCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(p.done)
		defer m.release(t.ApplicationID)

		var (
			rec *types.ApplicationRecord
			err error
		)
		if atomic, ok := m.committer.(AtomicCommitter); ok {
			rec, err = atomic.CommitTransition(remoteCtx, event)
		} else {
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				_ = m.history.Append(remoteCtx, event)
			}()
			rec, err = m.committer.CommitStage(remoteCtx, t.ApplicationID, t.To)
		}

		p.outcome = Outcome{Transition: t, Record: rec, Err: err}
		if err == nil {
			m.notifier.Notify(Notification{
				Kind:          NotifyCommitted,
				JobID:         jobID,
				ApplicationID: t.ApplicationID,
				From:          t.From,
				To:            t.To,
				Message:       fmt.Sprintf("moved to %s", t.To),
			})
			return
		}

		log.Printf("[board] commit %s %s -> %s failed, reloading job %s: %v", t.ApplicationID, t.From, t.To, jobID, err)
		if _, rerr := m.store.Load(remoteCtx, jobID); rerr != nil {
			var integrity *IntegrityError
			if !errors.As(rerr, &integrity) {
				p.outcome.ReconcileErr = rerr
				m.revert(t)
			}
		}
		message := "could not move application; board reloaded"
		if p.outcome.ReconcileErr != nil {
			message = "could not move application; move undone"
		}
		m.notifier.Notify(Notification{
			Kind:          NotifyCommitFailed,
			JobID:         jobID,
			ApplicationID: t.ApplicationID,
			From:          t.From,
			To:            t.To,
			Message:       message,
			Err:           err,
		})
	}()

	return p, nil
}

// InFlight reports whether applicationID has an unsettled transition.
func (m *Mutator) InFlight(applicationID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inflight[applicationID]
	return ok
}

// Drain waits for every dispatched commit, reload and history append to finish.
func (m *Mutator) Drain() {
	m.wg.Wait()
}

// revert undoes the local move of t when the board could not be reloaded.
// A record that has since left t.To is left where it is.
func (m *Mutator) revert(t Transition) {
	back := Transition{ApplicationID: t.ApplicationID, From: t.To, To: t.From}
	if err := m.store.move(back); err != nil {
		log.Printf("[board] could not revert %s to %s: %v", t.ApplicationID, t.From, err)
	}
}

func (m *Mutator) release(applicationID string) {
	m.mu.Lock()
	delete(m.inflight, applicationID)
	m.mu.Unlock()
}
