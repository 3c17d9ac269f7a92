package board

import "sync"

// Selection is the set of application ids marked for a bulk action.
// Any id may be selected; membership is not checked against the board.
type Selection struct {
	mu    sync.Mutex
	order []string
	set   map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{set: make(map[string]struct{})}
}

// Add selects id. Adding an already selected id is a no-op.
func (s *Selection) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[id]; ok {
		return
	}
	s.set[id] = struct{}{}
	s.order = append(s.order, id)
}

// Remove deselects id.
func (s *Selection) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[id]; !ok {
		return
	}
	delete(s.set, id)
	s.order = removeID(s.order, id)
}

// Toggle flips membership of id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[id]; ok {
		delete(s.set, id)
		s.order = removeID(s.order, id)
		return false
	}
	s.set[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.set[id]
	return ok
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.order...)
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.set = make(map[string]struct{})
}
