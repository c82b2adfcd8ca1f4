package issueguard

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is an exported constant or variable used by the coordination engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is an exported constant or variable used by the coordination engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired is an exported constant or variable used by the coordination engine.
	ErrSessionExpired = errors.New("session expired")
	// ErrNotLoggedIn is an exported constant or variable used by the coordination engine.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrEngineNotReady is an exported constant or variable used by the coordination engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrEngineClosed is an exported constant or variable used by the coordination engine.
	ErrEngineClosed = errors.New("engine closed")
	// ErrStorageUnavailable is an exported constant or variable used by the coordination engine.
	ErrStorageUnavailable = errors.New("storage backend unavailable")
	// ErrLockUnavailable is an exported constant or variable used by the coordination engine.
	ErrLockUnavailable = errors.New("lock backend unavailable")
)

// ConflictError is returned by [LockService.Acquire] when the lock is
// already held by another user. Status carries the authoritative holder so
// the coordinator can surface it without an extra round trip.
type ConflictError struct {
	Status LockStatus
}

// Error describes the error operation and its observable behavior.
func (e *ConflictError) Error() string {
	if e == nil || e.Status.LockedBy == nil {
		return "lock conflict"
	}
	return fmt.Sprintf("lock held by %s (user %d)", e.Status.LockedBy.Username, e.Status.LockedBy.UserID)
}

// IsConflict reports whether err carries lock-conflict details and, if so,
// returns the embedded status.
func IsConflict(err error) (LockStatus, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict.Status, true
	}
	return LockStatus{}, false
}
