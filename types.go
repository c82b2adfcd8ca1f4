package issueguard

import (
	"context"
	"time"

	"github.com/mccescario1995/issueguard/authstore"
)

// Profile is the authenticated identity record carried by a session. It is
// re-exported from [authstore] so callers wiring services against the engine
// do not need to import the storage layer directly.
type Profile = authstore.Profile

// LockHolder identifies the user currently holding an issue lock.
//
// LockHolder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LockHolder struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// LockStatus is the client's cached view of the server-side lock on one
// issue. It is possibly stale; the server is the single source of truth.
//
// Invariant: LockedBy and LockedAt are non-nil iff IsLocked is true.
type LockStatus struct {
	IsLocked bool        `json:"isLocked"`
	LockedBy *LockHolder `json:"lockedBy"`
	LockedAt *time.Time  `json:"lockedAt"`
}

// Unlocked returns the zero lock state used whenever the coordinator resets
// to its fail-open default.
func Unlocked() LockStatus {
	return LockStatus{}
}

// HeldBy reports whether the status shows the lock held by the given user id.
func (s LockStatus) HeldBy(userID int64) bool {
	return s.IsLocked && s.LockedBy != nil && s.LockedBy.UserID == userID
}

// SessionService is the authentication collaborator. Implementations decide
// what a credential looks like; the engine only threads the opaque token
// through.
//
// Validate must return [ErrUnauthorized] (possibly wrapped) when the token
// is invalid or expired, and any other error for transport or server
// failures. The guard treats every error kind the same way for control flow
// and distinguishes unauthorized only for the user-facing notice.
type SessionService interface {
	Login(ctx context.Context, email, password string) (token string, profile *Profile, err error)
	Logout(ctx context.Context, token string) error
	Validate(ctx context.Context, token string) (*Profile, error)
}

// LockService is the lock collaborator, scoped by issue id. Acquire must
// return a [*ConflictError] carrying the true holder when the lock is held
// by someone else. All calls carry the caller's identity explicitly; remote
// implementations are free to derive it from the transport credential
// instead and ignore the owner argument.
type LockService interface {
	Status(ctx context.Context, issueID int64) (LockStatus, error)
	Acquire(ctx context.Context, issueID int64, owner LockHolder) error
	Release(ctx context.Context, issueID int64, owner LockHolder) error
	Heartbeat(ctx context.Context, issueID int64, owner LockHolder) error
}

// Decision is the outcome of a guard evaluation for one navigation.
//
// When Allow is false, RedirectTo names the target path and Notice carries
// the single user-visible message to show before redirecting, if any.
type Decision struct {
	Allow      bool
	RedirectTo string
	Notice     string
}

func allowDecision() Decision {
	return Decision{Allow: true}
}

func redirectDecision(to, notice string) Decision {
	return Decision{RedirectTo: to, Notice: notice}
}
