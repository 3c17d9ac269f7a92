package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/pipeline-board/internal/board"
	"github.com/jonathan/pipeline-board/internal/db"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validationErr *ErrValidation
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, board.ErrUnknownStage):
		return http.StatusBadRequest
	case errors.Is(err, board.ErrUnknownApplication), errors.Is(err, db.ErrApplicationNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrTransitionInFlight), errors.Is(err, board.ErrStaleTransition):
		return http.StatusConflict
	case errors.Is(err, board.ErrTransitionNotAllowed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, board.ErrNotLoaded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
