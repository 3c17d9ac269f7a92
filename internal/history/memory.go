package history

import (
	"context"
	"sync"

	"github.com/jonathan/pipeline-board/internal/types"
)

// MemoryLog is an in-process append-only event log.
type MemoryLog struct {
	mu     sync.RWMutex
	events []types.TransitionEvent
}

// NewMemoryLog returns an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// AppendHistory implements Appender.
func (m *MemoryLog) AppendHistory(_ context.Context, event types.TransitionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns every event in append order.
func (m *MemoryLog) Events() []types.TransitionEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.TransitionEvent(nil), m.events...)
}

// ForApplication returns the events of one application in append order.
func (m *MemoryLog) ForApplication(applicationID string) []types.TransitionEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.TransitionEvent
	for _, ev := range m.events {
		if ev.ApplicationID == applicationID {
			out = append(out, ev)
		}
	}
	return out
}
