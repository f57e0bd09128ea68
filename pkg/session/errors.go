package session

import "errors"

var (
	// ErrEmptyQueue means there is nothing eligible to study; callers show an
	// empty state instead of a session.
	ErrEmptyQueue = errors.New("no eligible words for session")
	// ErrSessionNotInProgress is returned when a finished or never started
	// session is driven. It indicates a caller bug.
	ErrSessionNotInProgress = errors.New("session is not in progress")
	// ErrPersistenceWriteFailed wraps background write failures delivered as
	// warnings. It never rolls back in-memory progress.
	ErrPersistenceWriteFailed = errors.New("persistence write failed")
	ErrUnknownSessionType     = errors.New("unknown session type")
	ErrNoActiveSession        = errors.New("no active session")
)
