package report

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a session ID resolves to nothing.
var ErrNotFound = errors.New("report: session not found")

// ErrArtifactNotFound is returned when a session has no generated PDF.
var ErrArtifactNotFound = errors.New("report: generated artifact not found")

// ErrAlreadyCompleted signals that a generation request hit a completed
// session without the force flag; the caller should return the existing
// artifact reference instead of rendering.
var ErrAlreadyCompleted = errors.New("report: session already completed")

// Upload rejection taxonomy. Each sentinel maps to one HTTP status in the
// router; wrapping adds the concrete limit that was exceeded.
var (
	ErrUnsupportedMediaType = errors.New("report: unsupported media type")
	ErrPayloadTooLarge      = errors.New("report: image exceeds per-file size limit")
	ErrQuotaExceeded        = errors.New("report: session exceeds total upload budget")
	ErrImageTooLarge        = errors.New("report: image dimensions exceed limit")
	ErrCapacityExceeded     = errors.New("report: photo group is at capacity")
)

// InvalidStateError reports a mutation attempted outside the state that
// permits it.
type InvalidStateError struct {
	SessionID string
	Status    Status
	Op        string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("report: cannot %s session %s in status %q", e.Op, e.SessionID, e.Status)
}

// ConflictError reports a second generation attempt while one is in flight.
type ConflictError struct {
	SessionID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("report: generation already in progress for session %s", e.SessionID)
}

// FieldError names one form field that violates a declared constraint.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// InvalidFieldsError carries every constraint violation found in a form
// save, not just the first.
type InvalidFieldsError struct {
	Fields []FieldError
}

func (e *InvalidFieldsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return "report: invalid form fields: " + strings.Join(names, ", ")
}

// IncompleteError rejects a generation attempt with the full deficiency
// list from the transition guard.
type IncompleteError struct {
	Missing *Incomplete
}

func (e *IncompleteError) Error() string {
	var parts []string
	if len(e.Missing.Fields) > 0 {
		parts = append(parts, "fields: "+strings.Join(e.Missing.Fields, ", "))
	}
	if len(e.Missing.Groups) > 0 {
		parts = append(parts, "photo groups: "+strings.Join(e.Missing.Groups, ", "))
	}
	return "report: submission incomplete (" + strings.Join(parts, "; ") + ")"
}

// RenderError wraps an assembly failure. The router surfaces it as an opaque
// server error; the underlying cause stays in the server log.
type RenderError struct {
	SessionID string
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("report: render failed for session %s: %v", e.SessionID, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
