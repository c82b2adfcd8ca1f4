// Package password provides argon2id hashing and constant-time verification
// for the credential store behind the reference session service. Hashes use
// the PHC string format so parameters travel with the hash.
package password
