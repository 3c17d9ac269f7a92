package types

// SourceAll is the source filter sentinel that disables source matching.
const SourceAll = "all"

// FilterCriteria narrows a board view. It is session-scoped and never persisted.
type FilterCriteria struct {
	Search   string  `json:"search,omitempty"`
	MinScore float64 `json:"min_score,omitempty" validate:"gte=0,lte=100"`
	Source   string  `json:"source,omitempty"`
}

// MatchesAllSources reports whether the source filter is disabled.
// An empty source is treated the same as the "all" sentinel.
func (c FilterCriteria) MatchesAllSources() bool {
	return c.Source == "" || c.Source == SourceAll
}
