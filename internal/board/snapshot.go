package board

import (
	"github.com/jonathan/pipeline-board/internal/types"
)

// Transition is a validated move of one application between two stages.
type Transition struct {
	ApplicationID string `json:"application_id"`
	From          string `json:"from"`
	To            string `json:"to"`
}

// Snapshot is a point-in-time copy of the board. Callers may keep and modify it freely.
type Snapshot struct {
	JobID    string                             `json:"job_id"`
	Version  uint64                             `json:"version"`
	Stages   []string                           `json:"stages"`
	Buckets  map[string][]string                `json:"buckets"`
	Records  map[string]types.ApplicationRecord `json:"records"`
	Unplaced []IntegrityProblem                 `json:"unplaced,omitempty"`
}

// Bucket returns the records of a stage in board order.
func (s Snapshot) Bucket(stage string) []types.ApplicationRecord {
	ids := s.Buckets[stage]
	out := make([]types.ApplicationRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.Records[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Counts returns the number of applications per stage.
func (s Snapshot) Counts() map[string]int {
	out := make(map[string]int, len(s.Stages))
	for _, stage := range s.Stages {
		out[stage] = len(s.Buckets[stage])
	}
	return out
}

// StageOf returns the bucket holding id.
func (s Snapshot) StageOf(id string) (string, bool) {
	for _, stage := range s.Stages {
		for _, member := range s.Buckets[stage] {
			if member == id {
				return stage, true
			}
		}
	}
	return "", false
}

// Len returns the number of placed applications.
func (s Snapshot) Len() int {
	n := 0
	for _, stage := range s.Stages {
		n += len(s.Buckets[stage])
	}
	return n
}

// Membership returns the set of ids per stage, ignoring order.
func (s Snapshot) Membership() map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(s.Stages))
	for _, stage := range s.Stages {
		set := make(map[string]bool, len(s.Buckets[stage]))
		for _, id := range s.Buckets[stage] {
			set[id] = true
		}
		out[stage] = set
	}
	return out
}
