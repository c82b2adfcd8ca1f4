// Package issueguard provides the client-side coordination core for an
// issue-tracking application: a durable session store, a navigation-time
// session guard, and a per-issue exclusive edit-lock coordinator with
// heartbeat renewal.
//
// The package is designed around one failure-recovery rule: on any
// uncertainty, revert to the safe state. Session validity fails closed
// (an unverifiable session is cleared and the visitor is redirected to
// login); lock-status display fails open (an unreachable lock service is
// shown as unlocked so the UI never blocks, while the server remains the
// enforcement point for actual writes).
//
// # Architecture boundaries
//
// issueguard is the public surface. It exposes [Engine], [Builder],
// [Config], [Coordinator], and value types (LockStatus, Decision,
// MetricsSnapshot, etc.). Collaborators are reached only through the
// [SessionService] and [LockService] interfaces; reference
// implementations live in sessionservice/ and lockservice/, and an HTTP
// client for a remote backend lives in httpapi/.
//
// # What this package must NOT do
//
//   - Enforce mutual exclusion locally. The lock being modeled is a
//     remote resource; the coordinator only mirrors it.
//   - Trust hydrated storage for an authorization decision. Every guarded
//     navigation re-validates against the session service.
//   - Let a release or heartbeat failure propagate to a caller's cleanup
//     path. Both are logged and swallowed.
package issueguard
