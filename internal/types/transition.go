package types

import (
	"time"

	"github.com/google/uuid"
)

// TransitionEvent is the immutable audit record of one committed stage change.
type TransitionEvent struct {
	ID            uuid.UUID `json:"id"`
	ApplicationID string    `json:"application_id"`
	FromStage     string    `json:"from_stage"`
	ToStage       string    `json:"to_stage"`
	Actor         string    `json:"actor,omitempty"`
	Note          string    `json:"note,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewTransitionEvent builds an event with a fresh id.
func NewTransitionEvent(appID, from, to string, at time.Time) TransitionEvent {
	return TransitionEvent{
		ID:            uuid.New(),
		ApplicationID: appID,
		FromStage:     from,
		ToStage:       to,
		OccurredAt:    at.UTC(),
	}
}
