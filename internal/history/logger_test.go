package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pipeline-board/internal/types"
)

type failingAppender struct {
	calls int
}

func (f *failingAppender) AppendHistory(_ context.Context, _ types.TransitionEvent) error {
	f.calls++
	return errors.New("connection reset")
}

func TestLogger_Record(t *testing.T) {
	mem := NewMemoryLog()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLogger(mem, WithActor("recruiter@example.com"), WithClock(func() time.Time { return at }))

	ev, err := l.Record(context.Background(), "app-1", "applied", "screening", "phone screen booked")
	require.NoError(t, err)

	events := mem.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ev, events[0])
	assert.Equal(t, "app-1", ev.ApplicationID)
	assert.Equal(t, "applied", ev.FromStage)
	assert.Equal(t, "screening", ev.ToStage)
	assert.Equal(t, "recruiter@example.com", ev.Actor)
	assert.Equal(t, "phone screen booked", ev.Note)
	assert.Equal(t, at, ev.OccurredAt)
	assert.NotEqual(t, uuid.Nil, ev.ID)
}

func TestLogger_AppendFailureNotRetried(t *testing.T) {
	app := &failingAppender{}
	l := NewLogger(app)

	_, err := l.Record(context.Background(), "app-1", "applied", "hired", "")
	require.Error(t, err)

	var herr *Error
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, "app-1", herr.Event.ApplicationID)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1, app.calls)
}

func TestLogger_EventsHaveDistinctIDs(t *testing.T) {
	l := NewLogger(NewMemoryLog())
	a := l.NewEvent("x", "applied", "screening")
	b := l.NewEvent("x", "applied", "screening")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestMemoryLog_ForApplication(t *testing.T) {
	mem := NewMemoryLog()
	l := NewLogger(mem)
	ctx := context.Background()

	_, _ = l.Record(ctx, "a", "applied", "screening", "")
	_, _ = l.Record(ctx, "b", "applied", "interview", "")
	_, _ = l.Record(ctx, "a", "screening", "offer", "")

	events := mem.ForApplication("a")
	require.Len(t, events, 2)
	assert.Equal(t, "screening", events[0].ToStage)
	assert.Equal(t, "offer", events[1].ToStage)
	assert.Empty(t, mem.ForApplication("zzz"))
}
