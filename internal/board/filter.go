package board

import (
	"strings"

	"github.com/jonathan/pipeline-board/internal/types"
)

// Filter returns the records of bucket matching every criterion, in bucket order.
// Search is a case-insensitive substring match on name or email; an empty search
// matches everything. bucket is not modified.
func Filter(bucket []types.ApplicationRecord, c types.FilterCriteria) []types.ApplicationRecord {
	query := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]types.ApplicationRecord, 0, len(bucket))
	for _, rec := range bucket {
		if query != "" &&
			!strings.Contains(strings.ToLower(rec.Name), query) &&
			!strings.Contains(strings.ToLower(rec.Email), query) {
			continue
		}
		if rec.Score < c.MinScore {
			continue
		}
		if !c.MatchesAllSources() && rec.Source != c.Source {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// View is a filtered projection of the board, one slice per stage.
type View struct {
	Stages  []string                             `json:"stages"`
	Buckets map[string][]types.ApplicationRecord `json:"buckets"`
	Total   int                                  `json:"total"`
}

// View applies c to every bucket of the current board. It never mutates the store.
func (s *Store) View(c types.FilterCriteria) View {
	snap := s.Snapshot()
	v := View{
		Stages:  snap.Stages,
		Buckets: make(map[string][]types.ApplicationRecord, len(snap.Stages)),
	}
	for _, stage := range snap.Stages {
		matched := Filter(snap.Bucket(stage), c)
		v.Buckets[stage] = matched
		v.Total += len(matched)
	}
	return v
}
