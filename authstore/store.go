package authstore

import (
	"context"
	"errors"
	"sync"

	"github.com/mccescario1995/issueguard/storage"
)

// ErrIncompleteSession is returned by Save when the token/profile pairing is
// violated. A token without a profile, or the reverse, is never valid.
var ErrIncompleteSession = errors.New("token and profile must be saved together")

// Store defines a public type used by issueguard APIs.
//
// Store is the single writer of session state; other components read it
// through [Store.Token], [Store.Profile], and [Store.IsLoggedIn]. All
// methods are safe for concurrent use. Writes are last-writer-wins, which
// is acceptable because they are user-driven, not machine-driven.
type Store struct {
	mu         sync.RWMutex
	backend    storage.Backend
	tokenKey   string
	profileKey string

	token   string
	profile *Profile
}

// NewStore creates a store over backend. A nil backend is allowed and makes
// Load/Save/Clear memory-only, the analog of running without a storage
// medium available.
func NewStore(backend storage.Backend, tokenKey, profileKey string) *Store {
	if tokenKey == "" {
		tokenKey = "token"
	}
	if profileKey == "" {
		profileKey = "userProfile"
	}
	return &Store{
		backend:    backend,
		tokenKey:   tokenKey,
		profileKey: profileKey,
	}
}

// Load hydrates memory from the backend. Missing, empty, "undefined", or
// unparsable entries are purged and loaded as logged-out; only backend I/O
// failures are returned, and even then memory is reset to the safe default.
func (s *Store) Load(ctx context.Context) error {
	if s == nil || s.backend == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rawToken, ok, err := s.backend.Get(ctx, s.tokenKey)
	if err != nil {
		s.token = ""
		s.profile = nil
		return err
	}
	if !ok || absentPayload(rawToken) {
		_ = s.backend.Delete(ctx, s.tokenKey)
		s.token = ""
	} else {
		s.token = rawToken
	}

	rawProfile, ok, err := s.backend.Get(ctx, s.profileKey)
	if err != nil {
		s.token = ""
		s.profile = nil
		return err
	}
	if !ok || absentPayload(rawProfile) {
		_ = s.backend.Delete(ctx, s.profileKey)
		s.profile = nil
	} else if profile, decodeErr := decodeProfile(rawProfile); decodeErr != nil {
		// Self-healing: purge the corrupt entry, never propagate.
		_ = s.backend.Delete(ctx, s.profileKey)
		s.profile = nil
	} else {
		s.profile = profile
	}

	// Token and profile only count as a session together. A half-present
	// pair is loaded as logged-out and purged.
	if s.token == "" || s.profile == nil {
		_ = s.backend.Delete(ctx, s.tokenKey)
		_ = s.backend.Delete(ctx, s.profileKey)
		s.token = ""
		s.profile = nil
	}
	return nil
}

// Save writes token and profile to the backend and memory together. Both
// must be present; see [ErrIncompleteSession].
func (s *Store) Save(ctx context.Context, token string, profile *Profile) error {
	if token == "" || profile == nil {
		return ErrIncompleteSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend != nil {
		encoded, err := encodeProfile(profile)
		if err != nil {
			return err
		}
		if err := s.backend.Set(ctx, s.tokenKey, token); err != nil {
			return err
		}
		if err := s.backend.Set(ctx, s.profileKey, encoded); err != nil {
			return err
		}
	}

	s.token = token
	s.profile = profile.Clone()
	return nil
}

// Clear removes both entries and resets memory to logged-out. Idempotent.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.backend != nil {
		if err := s.backend.Delete(ctx, s.tokenKey); err != nil {
			firstErr = err
		}
		if err := s.backend.Delete(ctx, s.profileKey); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.token = ""
	s.profile = nil
	return firstErr
}

// IsLoggedIn reports whether a credential is currently present.
func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the current credential, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Profile returns a copy of the current profile, or nil when logged out.
func (s *Store) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}
