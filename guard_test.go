package issueguard

import (
	"context"
	"errors"
	"testing"

	"github.com/mccescario1995/issueguard/storage"
)

// flakyBackend wraps a memory backend and fails writes on demand.
type flakyBackend struct {
	*storage.Memory
	failSet bool
}

func (b *flakyBackend) Set(ctx context.Context, key, value string) error {
	if b.failSet {
		return errors.New("storage write failed")
	}
	return b.Memory.Set(ctx, key, value)
}

func TestGuardRouteLoginPathBypassesValidation(t *testing.T) {
	sessions := &fakeSessionService{validateErr: ErrUnauthorized}
	engine, _ := newTestEngine(t, sessions, &fakeLockService{})

	decision := engine.GuardRoute(context.Background(), "/")
	if !decision.Allow {
		t.Fatalf("expected login path allowed, got %+v", decision)
	}
	if got := sessions.validateCount(); got != 0 {
		t.Fatalf("expected no validation on login path, got %d calls", got)
	}
}

func TestGuardRouteSuccessRefreshesProfile(t *testing.T) {
	sessions := &fakeSessionService{
		validateProfile: &Profile{UserID: 7, Username: "alice", Extra: map[string]any{"department": "QA"}},
	}
	engine, _ := newTestEngine(t, sessions, &fakeLockService{})
	seedSession(t, engine, 7, "alice")

	decision := engine.GuardRoute(context.Background(), "/issue/42")
	if !decision.Allow {
		t.Fatalf("expected navigation allowed, got %+v", decision)
	}
	if !engine.Auth().IsLoggedIn() {
		t.Fatal("expected logged-in state preserved")
	}
	profile := engine.Auth().Profile()
	if profile == nil || profile.Extra["department"] != "QA" {
		t.Fatalf("expected server profile adopted, got %+v", profile)
	}
}

func TestGuardRouteFailureKindsFailClosed(t *testing.T) {
	tests := []struct {
		name       string
		validate   func(*fakeSessionService)
		wantNotice string
	}{
		{
			name:       "transport failure",
			validate:   func(f *fakeSessionService) { f.validateErr = errors.New("connection refused") },
			wantNotice: NoticeSessionEnded,
		},
		{
			name:       "unauthorized",
			validate:   func(f *fakeSessionService) { f.validateErr = ErrUnauthorized },
			wantNotice: NoticeSessionExpired,
		},
		{
			name:       "expired",
			validate:   func(f *fakeSessionService) { f.validateErr = ErrSessionExpired },
			wantNotice: NoticeSessionExpired,
		},
		{
			name:       "nil profile success",
			validate:   func(f *fakeSessionService) { f.validateProfile = nil },
			wantNotice: NoticeSessionEnded,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sessions := &fakeSessionService{}
			tc.validate(sessions)
			engine, _ := newTestEngine(t, sessions, &fakeLockService{})
			seedSession(t, engine, 7, "alice")

			decision := engine.GuardRoute(context.Background(), "/issue/42")
			if decision.Allow {
				t.Fatal("expected redirect")
			}
			if decision.RedirectTo != "/" {
				t.Fatalf("expected redirect to /, got %q", decision.RedirectTo)
			}
			if decision.Notice != tc.wantNotice {
				t.Fatalf("expected notice %q, got %q", tc.wantNotice, decision.Notice)
			}
			if engine.Auth().IsLoggedIn() {
				t.Fatal("expected local session cleared")
			}
		})
	}
}

func TestGuardRouteRevalidatesEveryNavigation(t *testing.T) {
	sessions := &fakeSessionService{validateProfile: &Profile{UserID: 7, Username: "alice"}}
	engine, _ := newTestEngine(t, sessions, &fakeLockService{})
	seedSession(t, engine, 7, "alice")

	engine.GuardRoute(context.Background(), "/issue/1")
	engine.GuardRoute(context.Background(), "/issue/2")

	if got := sessions.validateCount(); got != 2 {
		t.Fatalf("expected one validation per navigation, got %d", got)
	}
}

func TestGuardRouteLoggedOutRedirects(t *testing.T) {
	sessions := &fakeSessionService{validateErr: ErrUnauthorized}
	engine, _ := newTestEngine(t, sessions, &fakeLockService{})

	decision := engine.GuardRoute(context.Background(), "/issue/42")
	if decision.Allow {
		t.Fatal("expected redirect for logged-out visitor")
	}
	if decision.RedirectTo != "/" {
		t.Fatalf("expected redirect to /, got %q", decision.RedirectTo)
	}
}

func TestGuardRoutePersistFailureFailsClosed(t *testing.T) {
	sessions := &fakeSessionService{validateProfile: &Profile{UserID: 7, Username: "alice"}}
	backend := &flakyBackend{Memory: storage.NewMemory()}

	engine, err := New().
		WithSessionService(sessions).
		WithLockService(&fakeLockService{}).
		WithStorage(backend).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	seedSession(t, engine, 7, "alice")

	backend.failSet = true
	decision := engine.GuardRoute(context.Background(), "/issue/42")
	if decision.Allow {
		t.Fatal("expected redirect when session cannot be persisted")
	}
	if decision.Notice != NoticeSessionEnded {
		t.Fatalf("expected %q, got %q", NoticeSessionEnded, decision.Notice)
	}
	if engine.Auth().IsLoggedIn() {
		t.Fatal("expected local session cleared")
	}
}

func TestGuardGuestRedirectsAuthenticatedVisitor(t *testing.T) {
	sessions := &fakeSessionService{}
	engine, _ := newTestEngine(t, sessions, &fakeLockService{})
	seedSession(t, engine, 7, "alice")

	decision := engine.GuardGuest(context.Background(), "/")
	if decision.Allow {
		t.Fatal("expected redirect for authenticated visitor")
	}
	if decision.RedirectTo != "/issue" {
		t.Fatalf("expected redirect to /issue, got %q", decision.RedirectTo)
	}
	if got := sessions.validateCount(); got != 0 {
		t.Fatalf("guest guard must not call the session service, got %d calls", got)
	}
}

func TestGuardGuestAllowsLoggedOutVisitor(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeSessionService{}, &fakeLockService{})

	decision := engine.GuardGuest(context.Background(), "/")
	if !decision.Allow {
		t.Fatalf("expected logged-out visitor allowed, got %+v", decision)
	}
}

func TestGuardGuestHomePathBypassed(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeSessionService{}, &fakeLockService{})
	seedSession(t, engine, 7, "alice")

	decision := engine.GuardGuest(context.Background(), "/issue")
	if !decision.Allow {
		t.Fatalf("expected home path allowed, got %+v", decision)
	}
}
