// Package lockservice provides the Redis reference implementation of the
// issue lock collaborator. One key per issue holds the current holder and
// carries the lease TTL; acquire, heartbeat, and release run as Lua scripts
// so the ownership check and the state change are atomic.
//
// The lease TTL is the abandonment bound: a client that stops heartbeating
// loses the lock within one lease, with no server-side bookkeeping beyond
// key expiry.
package lockservice
