package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/jonathan/pipeline-board/internal/board"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// notificationEvent is the wire form of a board notification.
type notificationEvent struct {
	board.Notification
	Error string `json:"error,omitempty"`
}

// eventHub fans board notifications out to the event streams of their job.
// Delivery never blocks the board: a full subscriber buffer drops the event.
type eventHub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan board.Notification
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[string]map[int]chan board.Notification)}
}

// Notify implements board.Notifier.
func (h *eventHub) Notify(n board.Notification) {
	board.LogNotifier{}.Notify(n)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[n.JobID] {
		select {
		case ch <- n:
		default:
		}
	}
}

// subscribe registers a buffered channel for jobID.
func (h *eventHub) subscribe(jobID string) (<-chan board.Notification, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan board.Notification, 16)
	if h.subs[jobID] == nil {
		h.subs[jobID] = make(map[int]chan board.Notification)
	}
	h.subs[jobID][id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[jobID], id)
		if len(h.subs[jobID]) == 0 {
			delete(h.subs, jobID)
		}
	}
}

// handleBoardEvents streams board snapshots and notifications for one job.
func (s *Server) handleBoardEvents(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	b, err := s.loadedBoard(r.Context(), jobID)
	if err != nil {
		s.failure(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	snapshots := make(chan board.Snapshot, 1)
	unsubscribe := b.Store.Subscribe(func(snap board.Snapshot) {
		// keep only the latest snapshot
		select {
		case <-snapshots:
		default:
		}
		select {
		case snapshots <- snap:
		default:
		}
	})
	defer unsubscribe()

	notifications, stop := s.events.subscribe(jobID)
	defer stop()

	if err := sse.WriteEvent("snapshot", b.Store.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-snapshots:
			if err := sse.WriteEvent("snapshot", snap); err != nil {
				return
			}
		case n := <-notifications:
			ev := notificationEvent{Notification: n}
			if n.Err != nil {
				ev.Error = n.Err.Error()
			}
			if err := sse.WriteEvent("notification", ev); err != nil {
				return
			}
		}
	}
}
