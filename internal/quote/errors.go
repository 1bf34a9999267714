package quote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the quote does not exist.
	ErrNotFound = errors.New("quote not found")
	// ErrForbidden indicates the actor may not touch this quote at all.
	ErrForbidden = errors.New("forbidden")
	// ErrStorageUnavailable indicates a storage collaborator failure; the
	// caller may retry the whole operation.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrDuplicateNumber is returned by the storage layer when the
	// (owner_id, quote_number) uniqueness constraint rejects an insert.
	ErrDuplicateNumber = errors.New("quote number already exists")
	// ErrAllocationExhausted indicates even the suffixed fallback insert
	// collided. Effectively unreachable outside of tests.
	ErrAllocationExhausted = errors.New("quote number allocation exhausted")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ForbiddenTransitionError reports a status change the actor may not perform.
type ForbiddenTransitionError struct {
	From Status
	To   Status
}

func (e *ForbiddenTransitionError) Error() string {
	return fmt.Sprintf("forbidden transition from %q to %q", e.From, e.To)
}
