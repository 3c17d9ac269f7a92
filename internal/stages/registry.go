// Package stages provides the ordered catalog of pipeline stages and the permitted-transition policy.
package stages

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Default stage identities.
const (
	Applied   = "applied"
	Screening = "screening"
	Interview = "interview"
	Offer     = "offer"
	Hired     = "hired"
	Rejected  = "rejected"
)

// Stage is one column of the board. Rank orders columns left to right.
type Stage struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Rank int    `json:"rank" yaml:"rank"`
}

// Registry is an immutable, ordered list of stages.
type Registry struct {
	stages []Stage
	byID   map[string]int
}

// New builds a registry. Stages are sorted by rank; ties keep input order.
func New(stages []Stage) (*Registry, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("stage registry: at least one stage is required")
	}

	sorted := make([]Stage, len(stages))
	copy(sorted, stages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	byID := make(map[string]int, len(sorted))
	for i, s := range sorted {
		if s.ID == "" {
			return nil, fmt.Errorf("stage registry: stage at rank %d has empty id", s.Rank)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("stage registry: duplicate stage id %q", s.ID)
		}
		byID[s.ID] = i
	}

	return &Registry{stages: sorted, byID: byID}, nil
}

// Default returns the standard recruitment pipeline.
func Default() *Registry {
	r, err := New([]Stage{
		{ID: Applied, Name: "Applied", Rank: 0},
		{ID: Screening, Name: "Screening", Rank: 1},
		{ID: Interview, Name: "Interview", Rank: 2},
		{ID: Offer, Name: "Offer", Rank: 3},
		{ID: Hired, Name: "Hired", Rank: 4},
		{ID: Rejected, Name: "Rejected", Rank: 5},
	})
	if err != nil {
		panic(err)
	}
	return r
}

// FromIDs builds a registry ranking the ids in the given order.
func FromIDs(ids ...string) (*Registry, error) {
	list := make([]Stage, len(ids))
	for i, id := range ids {
		list[i] = Stage{ID: id, Rank: i}
	}
	return New(list)
}

type catalogFile struct {
	Stages []Stage `yaml:"stages"`
}

// LoadFile reads a YAML stage catalog of the form:
//
//	stages:
//	  - id: applied
//	    name: Applied
//	    rank: 0
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage catalog %s: %w", path, err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse stage catalog YAML: %w", err)
	}
	return New(cf.Stages)
}

// All returns the stages in board order. The returned slice is a copy.
func (r *Registry) All() []Stage {
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

// IDs returns stage identities in board order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.stages))
	for i, s := range r.stages {
		out[i] = s.ID
	}
	return out
}

// IsValid reports whether id names a known stage.
func (r *Registry) IsValid(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Get returns the stage with the given id.
func (r *Registry) Get(id string) (Stage, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Stage{}, false
	}
	return r.stages[i], true
}

// Rank returns the board position of id, or -1 if unknown.
func (r *Registry) Rank(id string) int {
	i, ok := r.byID[id]
	if !ok {
		return -1
	}
	return r.stages[i].Rank
}

// Len returns the number of stages.
func (r *Registry) Len() int { return len(r.stages) }
