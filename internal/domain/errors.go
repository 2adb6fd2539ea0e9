package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrAuth indicates a missing, invalid or expired session credential
	ErrAuth = errors.New("authentication required")

	// ErrValidation indicates input rejected before any network call
	ErrValidation = errors.New("validation failed")

	// ErrFetch indicates a category or search read failed
	ErrFetch = errors.New("fetch failed")

	// ErrMutation indicates a like/dislike/undislike write failed
	ErrMutation = errors.New("mutation failed")

	// ErrServerOffline indicates the catalog server is unreachable
	ErrServerOffline = errors.New("catalog server is unreachable")
)

// ValidationError is a local input error (e.g. search query too short)
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return ErrValidation }

// FetchError is a scoped read failure. Scope is a category tag or "search".
type FetchError struct {
	Scope   string
	Message string
	Err     error
}

func (e *FetchError) Error() string { return e.Message }

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}

// MutationError is an action-scoped write failure
type MutationError struct {
	Action  Action
	Message string
	Err     error
}

func (e *MutationError) Error() string { return e.Message }

func (e *MutationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMutation}
	}
	return []error{ErrMutation, e.Err}
}

// NewFetchError builds a FetchError, preferring the remote detail for its message
func NewFetchError(scope string, err error) *FetchError {
	msg := fmt.Sprintf("failed to load %s", scope)
	if detail := RemoteDetail(err); detail != "" {
		msg = detail
	}
	return &FetchError{Scope: scope, Message: msg, Err: err}
}

// NewMutationError builds a MutationError, preferring the remote detail for its message
func NewMutationError(action Action, err error) *MutationError {
	msg := fmt.Sprintf("failed to %s", action)
	if detail := RemoteDetail(err); detail != "" {
		msg = detail
	}
	return &MutationError{Action: action, Message: msg, Err: err}
}

// RemoteDetail extracts the server-provided message from err, if any
func RemoteDetail(err error) string {
	var d interface{ Detail() string }
	if errors.As(err, &d) {
		return d.Detail()
	}
	return ""
}
