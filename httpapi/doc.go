// Package httpapi implements the session and lock collaborators against the
// issue tracker's REST backend. One Client serves both interfaces; session
// calls carry the token they are given, lock calls read the current
// credential from a TokenSource (typically the engine's auth store).
//
// Response-to-error mapping is the contract the guard and coordinator rely
// on: any 401 maps to [issueguard.ErrUnauthorized], and a lock acquisition
// rejected with a holder payload maps to [*issueguard.ConflictError].
package httpapi
