package service

import "errors"

// Error taxonomy for the orchestration core. Handlers map these onto HTTP
// statuses; anything else bubbling out of a service is a store failure.
var (
	// ErrValidation marks missing or malformed input. Not retryable.
	ErrValidation = errors.New("invalid input")

	// ErrInvalidState marks a match that is absent or in the wrong status
	// for the requested transition. Not retryable.
	ErrInvalidState = errors.New("invalid or inactive match")

	// ErrConflict marks an update that lost a race with a concurrent
	// request (cell already taken, activation claimed first). The caller
	// may retry the outer request.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrNotFound marks a lookup with no matching record.
	ErrNotFound = errors.New("not found")
)
