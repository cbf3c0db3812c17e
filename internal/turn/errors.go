package turn

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes turn failures.
type ErrorCode string

const (
	// CodeSessionNotFound indicates an unknown session_id. Client error, no retry.
	CodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// CodeInvalidUserText indicates empty/missing text where required. Client error.
	CodeInvalidUserText ErrorCode = "INVALID_USER_TEXT"

	// CodeNoCurrentField indicates the current index is in bounds but the
	// field lookup failed. Internal invariant violation; must never occur.
	CodeNoCurrentField ErrorCode = "NO_CURRENT_FIELD"

	// CodeExternalService indicates an extraction/translation/speech failure.
	// Recovered locally; never surfaced for the turn itself.
	CodeExternalService ErrorCode = "EXTERNAL_SERVICE_FAILURE"

	// CodeStoreConflict indicates concurrent-write contention that survived
	// internal retries under the per-session lock.
	CodeStoreConflict ErrorCode = "STORE_CONFLICT"
)

// Error is a typed turn failure.
type Error struct {
	Code      ErrorCode
	Message   string
	SessionID string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s: %s (session=%s)", e.Code, e.Message, e.SessionID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the error code from a (possibly wrapped) error.
// Returns "" for non-turn errors.
func CodeOf(err error) ErrorCode {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsSessionNotFound reports whether err is an unknown-session failure.
func IsSessionNotFound(err error) bool {
	return CodeOf(err) == CodeSessionNotFound
}

// IsInvalidUserText reports whether err is a missing-text failure.
func IsInvalidUserText(err error) bool {
	return CodeOf(err) == CodeInvalidUserText
}

// NewSessionNotFoundError creates the failure for an unknown session_id.
func NewSessionNotFoundError(sessionID string, err error) *Error {
	return &Error{
		Code:      CodeSessionNotFound,
		Message:   "session not found",
		SessionID: sessionID,
		Err:       err,
	}
}

// NewInvalidUserTextError creates the failure for missing user text.
func NewInvalidUserTextError(sessionID string) *Error {
	return &Error{
		Code:      CodeInvalidUserText,
		Message:   "user_text is required for USER_SPOKE events",
		SessionID: sessionID,
	}
}

// NewNoCurrentFieldError creates the invariant-violation failure.
func NewNoCurrentFieldError(sessionID string, index int) *Error {
	return &Error{
		Code:      CodeNoCurrentField,
		Message:   fmt.Sprintf("no field at index %d", index),
		SessionID: sessionID,
	}
}

// NewStoreConflictError creates the failure for exhausted save retries.
func NewStoreConflictError(sessionID string, err error) *Error {
	return &Error{
		Code:      CodeStoreConflict,
		Message:   "session save kept conflicting",
		SessionID: sessionID,
		Err:       err,
	}
}
