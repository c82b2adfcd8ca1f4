// Package jwt manages session-token issuance and verification for the
// reference session service, using ed25519 signatures and strict validation
// semantics. Tokens are opaque to the coordination core; only the session
// service interprets them.
package jwt
