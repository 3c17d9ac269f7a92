// Package board implements the candidate pipeline board: stage partitioning,
// drag resolution, optimistic transitions with reconciliation, and bulk moves.
package board

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotLoaded is returned when an operation needs a board that has never been loaded.
	ErrNotLoaded = errors.New("board not loaded")
	// ErrUnknownStage is returned for a stage id missing from the registry.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrUnknownApplication is returned for an application id not on the board.
	ErrUnknownApplication = errors.New("application not on board")
	// ErrTransitionInFlight is returned when the application already has an unconfirmed transition.
	ErrTransitionInFlight = errors.New("transition already in flight for application")
	// ErrTransitionNotAllowed is returned when the stage policy forbids the move.
	ErrTransitionNotAllowed = errors.New("transition not allowed")
	// ErrStaleTransition is returned when the application is no longer in the transition's source stage.
	ErrStaleTransition = errors.New("stale transition")
)

// Error represents a failure inside a board operation.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IntegrityProblem describes one record that could not be placed on the board.
type IntegrityProblem struct {
	ApplicationID string `json:"application_id"`
	Stage         string `json:"stage"`
	Reason        string `json:"reason"`
}

// IntegrityError reports records left out of every bucket during a load.
// The board is still installed with the records that could be placed.
type IntegrityError struct {
	JobID    string
	Problems []IntegrityProblem
}

func (e *IntegrityError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s (%s: %q)", p.ApplicationID, p.Reason, p.Stage))
	}
	return fmt.Sprintf("board integrity error for job %s: %d record(s) not placed: %s",
		e.JobID, len(e.Problems), strings.Join(parts, ", "))
}
