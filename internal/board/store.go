package board

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jonathan/pipeline-board/internal/stages"
	"github.com/jonathan/pipeline-board/internal/types"
)

// Store holds the board for one job: the authoritative local partition of
// applications into stage buckets. It is rebuilt wholesale on every load.
type Store struct {
	registry *stages.Registry
	lister   Lister

	mu        sync.RWMutex
	jobID     string
	loaded    bool
	version   uint64
	installed uint64 // sequence number of the load currently installed
	loadSeq   uint64
	buckets   map[string][]string
	records   map[string]*types.ApplicationRecord
	index     map[string]string // application id -> stage
	unplaced  []IntegrityProblem

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore creates an empty store.
func NewStore(registry *stages.Registry, lister Lister) *Store {
	return &Store{
		registry: registry,
		lister:   lister,
		subs:     make(map[int]func(Snapshot)),
	}
}

// Registry returns the stage catalog the store partitions against.
func (s *Store) Registry() *stages.Registry {
	return s.registry
}

// JobID returns the job of the last successful load.
func (s *Store) JobID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobID
}

// Loaded reports whether a board has been installed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Load fetches every application for jobID and replaces the board with a fresh partition.
// Records keep fetch order within their bucket. Records whose stage is unknown, or whose id
// repeats, are left out of every bucket and reported through an *IntegrityError; the board is
// still installed in that case and the returned snapshot is valid.
// When loads overlap, the most recently started one wins.
func (s *Store) Load(ctx context.Context, jobID string) (Snapshot, error) {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	records, err := s.lister.ListApplications(ctx, jobID)
	if err != nil {
		return Snapshot{}, &Error{Message: fmt.Sprintf("failed to load board for job %s", jobID), Cause: err}
	}

	buckets := make(map[string][]string, s.registry.Len())
	for _, id := range s.registry.IDs() {
		buckets[id] = []string{}
	}
	byID := make(map[string]*types.ApplicationRecord, len(records))
	index := make(map[string]string, len(records))
	var problems []IntegrityProblem

	for i := range records {
		rec := records[i].Clone()
		switch {
		case !s.registry.IsValid(rec.Stage):
			problems = append(problems, IntegrityProblem{ApplicationID: rec.ID, Stage: rec.Stage, Reason: "unknown stage"})
			continue
		case index[rec.ID] != "":
			problems = append(problems, IntegrityProblem{ApplicationID: rec.ID, Stage: rec.Stage, Reason: "duplicate id"})
			continue
		}
		buckets[rec.Stage] = append(buckets[rec.Stage], rec.ID)
		byID[rec.ID] = &rec
		index[rec.ID] = rec.Stage
	}

	s.mu.Lock()
	if seq < s.installed {
		// A newer load already installed its result.
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	s.installed = seq
	s.jobID = jobID
	s.loaded = true
	s.version++
	s.buckets = buckets
	s.records = byID
	s.index = index
	s.unplaced = problems
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)

	if len(problems) > 0 {
		log.Printf("[board] job %s: %d record(s) could not be placed", jobID, len(problems))
		return snap, &IntegrityError{JobID: jobID, Problems: problems}
	}
	return snap, nil
}

// Reload re-runs Load for the current job.
func (s *Store) Reload(ctx context.Context) (Snapshot, error) {
	jobID := s.JobID()
	if !s.Loaded() {
		return Snapshot{}, ErrNotLoaded
	}
	return s.Load(ctx, jobID)
}

// Snapshot returns a copy of the current board.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Bucket returns the records of one stage in board order.
func (s *Store) Bucket(stage string) ([]types.ApplicationRecord, error) {
	if !s.registry.IsValid(stage) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.buckets[stage]
	out := make([]types.ApplicationRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id].Clone())
	}
	return out, nil
}

// Record returns a copy of one application record.
func (s *Store) Record(id string) (types.ApplicationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return types.ApplicationRecord{}, false
	}
	return rec.Clone(), true
}

// StageOf returns the stage bucket currently holding id.
func (s *Store) StageOf(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stage, ok := s.index[id]
	return stage, ok
}

// ResolveDrag maps a drag-end (active item, drop target) to a transition.
// overID may be a stage id or another application's id; a stage id takes precedence.
// It returns false for stale drags, unknown targets, and drops onto the source stage.
func (s *Store) ResolveDrag(activeID, overID string) (Transition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	source, ok := s.index[activeID]
	if !ok {
		return Transition{}, false
	}

	dest := ""
	if s.registry.IsValid(overID) {
		dest = overID
	} else if stage, ok := s.index[overID]; ok {
		dest = stage
	}

	if dest == "" || dest == source {
		return Transition{}, false
	}
	return Transition{ApplicationID: activeID, From: source, To: dest}, true
}

// Subscribe registers fn to receive a snapshot after every change.
// fn is called synchronously from the goroutine that made the change.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// move applies t to local state. The application must currently sit in t.From.
func (s *Store) move(t Transition) error {
	if !s.registry.IsValid(t.To) {
		return fmt.Errorf("%w: %s", ErrUnknownStage, t.To)
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	current, ok := s.index[t.ApplicationID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownApplication, t.ApplicationID)
	}
	if current != t.From {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s is in %s, not %s", ErrStaleTransition, t.ApplicationID, current, t.From)
	}

	s.buckets[t.From] = removeID(s.buckets[t.From], t.ApplicationID)
	s.buckets[t.To] = append(s.buckets[t.To], t.ApplicationID)
	s.index[t.ApplicationID] = t.To
	s.records[t.ApplicationID].Stage = t.To
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		JobID:   s.jobID,
		Version: s.version,
		Stages:  s.registry.IDs(),
		Buckets: make(map[string][]string, len(s.buckets)),
		Records: make(map[string]types.ApplicationRecord, len(s.records)),
	}
	for stage, ids := range s.buckets {
		snap.Buckets[stage] = append([]string{}, ids...)
	}
	for id, rec := range s.records {
		snap.Records[id] = rec.Clone()
	}
	if len(s.unplaced) > 0 {
		snap.Unplaced = append([]IntegrityProblem(nil), s.unplaced...)
	}
	return snap
}

func (s *Store) publish(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, member := range ids {
		if member != id {
			out = append(out, member)
		}
	}
	return out
}
