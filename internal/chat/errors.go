package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/cruxlog/beta/internal/llm"
)

// ErrorKind tags the failure categories that can cross the orchestrator
// boundary. Every path out of the orchestrator either returns a successful
// payload or a serialized *Error; raw errors never reach the caller.
type ErrorKind string

const (
	// KindUserError marks an unknown user. Not retried, surfaced immediately.
	KindUserError ErrorKind = "user_error"
	// KindContextError marks a failed context aggregation. Surfaced as-is.
	KindContextError ErrorKind = "context_error"
	// KindTimeout marks an attempt that exceeded its budget.
	KindTimeout ErrorKind = "timeout"
	// KindAPIError marks a transport or protocol failure on a backend call.
	KindAPIError ErrorKind = "api_error"
	// KindSystemError is the catch-all for unexpected failures.
	KindSystemError ErrorKind = "system_error"
)

// Error is the tagged error type returned across the orchestrator boundary.
type Error struct {
	Kind    ErrorKind      `json:"error_type"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.wrapped }

// NewError builds a tagged error with an optional detail map.
func NewError(kind ErrorKind, message string, details map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

// WrapError tags an underlying error with a kind and message.
func WrapError(kind ErrorKind, message string, cause error) *Error {
	e := &Error{Kind: kind, Message: message, wrapped: cause}
	if cause != nil {
		e.Details = map[string]any{"cause": cause.Error()}
	}
	return e
}

// KindOf classifies an arbitrary error into the taxonomy. Already-tagged
// errors keep their kind; backend failures split into timeout vs api_error;
// everything else is a system_error.
func KindOf(err error) ErrorKind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	if llm.IsTimeout(err) {
		return KindTimeout
	}
	return KindSystemError
}

// FromBackendError maps a model-client failure into a tagged error. This is
// the explicit error-mapping applied at each call site rather than a
// decorator inferring the backend from function names.
func FromBackendError(backend string, err error) *Error {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged
	}
	if llm.IsTimeout(err) {
		return WrapError(KindTimeout, fmt.Sprintf("%s call exceeded its time budget", backend), err)
	}
	return WrapError(KindAPIError, fmt.Sprintf("%s call failed", backend), err)
}

// ErrorPayload is the serialized failure shape handed to the caller.
type ErrorPayload struct {
	Error     bool           `json:"error"`
	ErrorType string         `json:"error_type"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Payload serializes a tagged error, stamping the current time.
func (e *Error) Payload() *ErrorPayload {
	return &ErrorPayload{
		Error:     true,
		ErrorType: string(e.Kind),
		Message:   e.Message,
		Details:   e.Details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
