// Package history records the append-only audit trail of stage transitions.
package history

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/pipeline-board/internal/types"
)

// Appender writes one transition event to durable storage.
type Appender interface {
	AppendHistory(ctx context.Context, event types.TransitionEvent) error
}

// Error represents a failed history append.
type Error struct {
	Event types.TransitionEvent
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to append history for %s (%s -> %s): %v",
		e.Event.ApplicationID, e.Event.FromStage, e.Event.ToStage, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Logger stamps and appends transition events. Failures are logged and
// returned, never retried, and never surfaced to end users.
type Logger struct {
	appender Appender
	actor    string
	now      func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithActor sets the actor recorded on every event.
func WithActor(actor string) Option {
	return func(l *Logger) { l.actor = actor }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// NewLogger creates a Logger writing through appender.
func NewLogger(appender Appender, opts ...Option) *Logger {
	l := &Logger{appender: appender, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewEvent builds the event for one transition without writing it.
func (l *Logger) NewEvent(applicationID, from, to string) types.TransitionEvent {
	ev := types.NewTransitionEvent(applicationID, from, to, l.now())
	ev.Actor = l.actor
	return ev
}

// Append writes event once.
func (l *Logger) Append(ctx context.Context, event types.TransitionEvent) error {
	if err := l.appender.AppendHistory(ctx, event); err != nil {
		herr := &Error{Event: event, Cause: err}
		log.Printf("[history] %v", herr)
		return herr
	}
	return nil
}

// Record builds and appends the event for one transition.
func (l *Logger) Record(ctx context.Context, applicationID, from, to, note string) (types.TransitionEvent, error) {
	ev := l.NewEvent(applicationID, from, to)
	ev.Note = note
	return ev, l.Append(ctx, ev)
}
