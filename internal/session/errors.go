package session

import "errors"

// Error kinds. Callers match with errors.Is; the HTTP layer maps them to
// status codes.
var (
	// ErrConflict: starting a session while one is already in progress.
	ErrConflict = errors.New("conflict")
	// ErrNotFound: the session, exercise index, or set index does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: the operation is not valid for the current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation: required start fields are missing.
	ErrValidation = errors.New("validation failed")
)

// Error is a tracker error carrying a kind and a caller-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}
