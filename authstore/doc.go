// Package authstore owns the process-wide representation of "who is logged
// in": an opaque credential token and the profile it belongs to, mirrored
// between memory and a durable storage backend.
//
// The two durable entries are written and cleared together, and a malformed
// persisted profile is self-healing: Load purges the offending entry and
// resets memory to logged-out instead of surfacing an error. A stored value
// literally equal to "undefined" is treated as absent — some writers
// serialize a missing value that way.
//
// # What this package must NOT do
//
//   - Decide authorization. The store is a cache; the session guard always
//     re-validates against the session service.
//   - Interpret profile attributes beyond the user id and username. Extra
//     attributes round-trip opaquely.
package authstore
