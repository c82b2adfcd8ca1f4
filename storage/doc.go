// Package storage defines the durable key-value medium backing the auth
// store, with an in-process implementation for tests and single-tab use and
// a Redis implementation for state shared across processes.
//
// Backends store opaque strings; interpretation of the values (and
// self-healing of malformed ones) belongs to the auth store.
package storage
