// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
)

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// IDsRequest is the body of bulk operations.
type IDsRequest struct {
	IDs []id.ID `json:"ids" binding:"required,min=1,max=500"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// LineSet accepts document lines under any of the envelope keys list views
// send: {"lines": [...]}, {"details": [...]} or {"values": [...]}.
type LineSet[L any] struct {
	Lines   []L `json:"lines" binding:"omitempty,dive"`
	Details []L `json:"details" binding:"omitempty,dive"`
	Values  []L `json:"values" binding:"omitempty,dive"`
}

// Present reports whether the request carried any envelope at all.
func (s LineSet[L]) Present() bool {
	return s.Lines != nil || s.Details != nil || s.Values != nil
}

// All returns the lines of the first envelope present.
func (s LineSet[L]) All() []L {
	switch {
	case s.Lines != nil:
		return s.Lines
	case s.Details != nil:
		return s.Details
	default:
		return s.Values
	}
}

// ParseIDs parses query ids. Values may repeat the key or be comma-separated.
func ParseIDs(field string, raw []string) ([]id.ID, error) {
	var out []id.ID
	for _, r := range raw {
		for _, s := range strings.Split(r, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			v, err := id.Parse(s)
			if err != nil {
				return nil, apperror.NewValidation("invalid id").
					WithDetail("field", field).
					WithDetail("value", s)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// ParseOptionalID parses a single optional query id.
func ParseOptionalID(field, raw string) (*id.ID, error) {
	if raw == "" {
		return nil, nil
	}
	ids, err := ParseIDs(field, []string{raw})
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return &ids[0], nil
}
