package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/pipeline-board/internal/board"
	"github.com/jonathan/pipeline-board/internal/stages"
	"github.com/jonathan/pipeline-board/internal/types"
)

// DragRequest represents the request body for a drag-end
type DragRequest struct {
	ActiveID string `json:"active_id" validate:"required"`
	OverID   string `json:"over_id"`
}

// GestureRequest is a raw pointer gesture over the rendered board
type GestureRequest struct {
	ActiveID string         `json:"active_id" validate:"required"`
	Press    board.Point    `json:"press"`
	Path     []board.Point  `json:"path,omitempty"`
	Release  board.Point    `json:"release"`
	Targets  []board.Target `json:"targets"`
}

// MoveRequest represents the request body for a quick-action stage change
type MoveRequest struct {
	JobID string `json:"job_id" validate:"required"`
	Stage string `json:"stage" validate:"required"`
}

// BulkRequest represents the request body for a bulk transition
type BulkRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// TransitionResponse describes an accepted or settled transition.
type TransitionResponse struct {
	Transition board.Transition         `json:"transition"`
	Status     string                   `json:"status"`
	Record     *types.ApplicationRecord `json:"record,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// BoardResponse is a loaded board with per-stage counts.
type BoardResponse struct {
	board.Snapshot
	Counts map[string]int `json:"counts"`
}

// SelectionResponse lists the selected application ids of a job
type SelectionResponse struct {
	JobID string   `json:"job_id"`
	IDs   []string `json:"ids"`
}

// HistoryResponse lists the audit log of one application
type HistoryResponse struct {
	ApplicationID string                  `json:"application_id"`
	Events        []types.TransitionEvent `json:"events"`
}

const (
	statusPending   = "pending"
	statusCommitted = "committed"
	statusFailed    = "failed"
)

// handleListStages returns the stage catalog in board order
func (s *Server) handleListStages(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string][]stages.Stage{"stages": s.registry.All()})
}

// handleLoadBoard fetches a fresh board for a job
func (s *Server) handleLoadBoard(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	snap, err := s.boardFor(jobID).Load(r.Context(), jobID)
	if err != nil && !isIntegrity(err) {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, BoardResponse{Snapshot: snap, Counts: snap.Counts()})
}

// handleBoardView returns the current board filtered by query parameters
func (s *Server) handleBoardView(w http.ResponseWriter, r *http.Request) {
	criteria, err := s.parseCriteria(r)
	if err != nil {
		s.failure(w, err)
		return
	}

	b, err := s.loadedBoard(r.Context(), r.PathValue("job_id"))
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, b.Filter(criteria))
}

// parseCriteria reads filter criteria from the query string and validates them.
func (s *Server) parseCriteria(r *http.Request) (types.FilterCriteria, error) {
	q := r.URL.Query()
	c := types.FilterCriteria{
		Search: q.Get("search"),
		Source: q.Get("source"),
	}
	if raw := strings.TrimSpace(q.Get("min_score")); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c, &ErrValidation{Field: "min_score", Message: "must be a number"}
		}
		c.MinScore = score
	}
	if err := s.validator.Struct(c); err != nil {
		return c, &ErrValidation{Field: "min_score", Message: "must be between 0 and 100"}
	}
	return c, nil
}

// handleDrag resolves a drag-end and applies the resulting transition
func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	var req DragRequest
	if !s.decode(w, r, &req) {
		return
	}

	b, err := s.loadedBoard(r.Context(), r.PathValue("job_id"))
	if err != nil {
		s.failure(w, err)
		return
	}

	t, ok := b.ResolveDrag(req.ActiveID, req.OverID)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	pending, err := b.ApplyTransition(r.Context(), t)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.respondPending(w, r, pending)
}

// handleGesture recognizes a pointer gesture and applies the drop it resolves to.
// A press that never travels past the activation distance is a click: no transition.
func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	var req GestureRequest
	if !s.decode(w, r, &req) {
		return
	}

	recognizer := board.NewRecognizer(s.activation)
	recognizer.Press(req.ActiveID, req.Press)
	for _, p := range req.Path {
		recognizer.Move(p)
	}
	end, _ := recognizer.Release(req.Release, req.Targets)
	if end.Click {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	b, err := s.loadedBoard(r.Context(), r.PathValue("job_id"))
	if err != nil {
		s.failure(w, err)
		return
	}

	t, ok := b.ResolveDrag(end.ActiveID, end.OverID)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	pending, err := b.ApplyTransition(r.Context(), t)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.respondPending(w, r, pending)
}

// handleMoveApplication is the quick-action stage change for one card
func (s *Server) handleMoveApplication(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !s.decode(w, r, &req) {
		return
	}

	b, err := s.loadedBoard(r.Context(), req.JobID)
	if err != nil {
		s.failure(w, err)
		return
	}

	pending, err := b.Mutator.MoveTo(r.Context(), r.PathValue("id"), req.Stage)
	if err != nil {
		s.failure(w, err)
		return
	}
	if pending == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.respondPending(w, r, pending)
}

// respondPending answers 202 for an accepted transition, or waits for the
// commit to settle when the request asks for ?wait=true.
func (s *Server) respondPending(w http.ResponseWriter, r *http.Request, p *board.Pending) {
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		s.jsonResponse(w, http.StatusAccepted, TransitionResponse{Transition: p.Transition, Status: statusPending})
		return
	}

	var outcome board.Outcome
	select {
	case <-p.Done():
		outcome = p.Wait()
	case <-r.Context().Done():
		s.jsonResponse(w, http.StatusAccepted, TransitionResponse{Transition: p.Transition, Status: statusPending})
		return
	}

	resp := TransitionResponse{Transition: outcome.Transition, Record: outcome.Record, Status: statusCommitted}
	if !outcome.Committed() {
		resp.Status = statusFailed
		resp.Error = outcome.Err.Error()
		s.jsonResponse(w, http.StatusBadGateway, resp)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleBulk moves every selected application of a job to one stage
func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if !s.decode(w, r, &req) {
		return
	}

	b, err := s.loadedBoard(r.Context(), r.PathValue("job_id"))
	if err != nil {
		s.failure(w, err)
		return
	}

	result, err := b.BulkApply(r.Context(), req.Stage)
	if err != nil && !isIntegrity(err) {
		var boardErr *board.Error
		if errors.As(err, &boardErr) {
			// items were committed; only the reload failed
			s.jsonResponse(w, http.StatusOK, result)
			return
		}
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleListSelection returns the selected ids of a job
func (s *Server) handleListSelection(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	s.jsonResponse(w, http.StatusOK, SelectionResponse{JobID: jobID, IDs: s.boardFor(jobID).Selection.IDs()})
}

// handleSelect adds an application to the selection of a job
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	sel := s.boardFor(jobID).Selection
	sel.Add(r.PathValue("id"))
	s.jsonResponse(w, http.StatusOK, SelectionResponse{JobID: jobID, IDs: sel.IDs()})
}

// handleDeselect removes an application from the selection of a job
func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	sel := s.boardFor(jobID).Selection
	sel.Remove(r.PathValue("id"))
	s.jsonResponse(w, http.StatusOK, SelectionResponse{JobID: jobID, IDs: sel.IDs()})
}

// handleHistory returns the audit log of one application
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	events, err := s.backend.ListHistory(r.Context(), id)
	if err != nil {
		s.failure(w, err)
		return
	}
	if events == nil {
		events = []types.TransitionEvent{}
	}
	s.jsonResponse(w, http.StatusOK, HistoryResponse{ApplicationID: id, Events: events})
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validator.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			s.failure(w, &ErrValidation{Field: fe.Field(), Message: fe.Tag()})
			return false
		}
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
