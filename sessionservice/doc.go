// Package sessionservice provides the Redis reference implementation of the
// session collaborator: argon2id credential verification through a pluggable
// user lookup, ed25519-signed session tokens, and one Redis record per
// session so the server can revoke independently of client state.
//
// Validate requires both a verifiable token and a live session record —
// deleting the record (logout, revocation, flushed Redis) invalidates the
// session immediately, which is exactly the case the route guard re-checks
// for on every navigation.
package sessionservice
