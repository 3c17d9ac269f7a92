// Package types provides type definitions for structured data used throughout the pipeline board.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ApplicationRecord is one candidate's application to a job, tracked through the pipeline.
type ApplicationRecord struct {
	ID     string   `json:"id" validate:"required"`
	JobID  string   `json:"job_id" validate:"required"`
	Name   string   `json:"name" validate:"required"`
	Email  string   `json:"email" validate:"omitempty,email"`
	Stage  string   `json:"stage" validate:"required"`
	Score  float64  `json:"fit_score" validate:"gte=0,lte=100"`
	Source string   `json:"source,omitempty"`
	Star   bool     `json:"starred"`
	Labels []string `json:"labels,omitempty"`

	// Metadata is opaque to the board (salary expectation, notice period, availability date, ...).
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Validate checks field-level constraints. Stage identity is checked against a registry by the caller.
func (a *ApplicationRecord) Validate() error {
	validate := validator.New()
	return validate.Struct(a)
}

// Clone returns a copy that shares no mutable state with a.
func (a ApplicationRecord) Clone() ApplicationRecord {
	out := a
	if a.Labels != nil {
		out.Labels = append([]string(nil), a.Labels...)
	}
	if a.Metadata != nil {
		out.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// HasLabel reports whether the record carries the given label.
func (a *ApplicationRecord) HasLabel(label string) bool {
	for _, l := range a.Labels {
		if l == label {
			return true
		}
	}
	return false
}
