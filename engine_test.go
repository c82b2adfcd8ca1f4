package issueguard

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"
)

type fakeSessionService struct {
	mu sync.Mutex

	loginToken   string
	loginProfile *Profile
	loginErr     error

	validateProfile *Profile
	validateErr     error
	logoutErr       error

	validateCalls int
	logoutCalls   int
	lastValidated string
}

func (f *fakeSessionService) Login(_ context.Context, _, _ string) (string, *Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return f.loginToken, f.loginProfile.Clone(), nil
}

func (f *fakeSessionService) Logout(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeSessionService) Validate(_ context.Context, token string) (*Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validateCalls++
	f.lastValidated = token
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	return f.validateProfile.Clone(), nil
}

func (f *fakeSessionService) validateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateCalls
}

func (f *fakeSessionService) logoutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logoutCalls
}

// fakeLockService mimics the server: a successful acquire records the owner
// as holder, a successful release clears it.
type fakeLockService struct {
	mu sync.Mutex

	status       LockStatus
	statusErr    error
	acquireErr   error
	releaseErr   error
	heartbeatErr error

	statusCalls    int
	acquireCalls   int
	releaseCalls   int
	heartbeatCalls int
}

func (f *fakeLockService) Status(_ context.Context, _ int64) (LockStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return LockStatus{}, f.statusErr
	}
	return cloneStatus(f.status), nil
}

func (f *fakeLockService) Acquire(_ context.Context, _ int64, owner LockHolder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquireCalls++
	if f.acquireErr != nil {
		return f.acquireErr
	}
	at := time.Unix(1_700_000_000, 0)
	f.status = LockStatus{IsLocked: true, LockedBy: &owner, LockedAt: &at}
	return nil
}

func (f *fakeLockService) Release(_ context.Context, _ int64, _ LockHolder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseCalls++
	if f.releaseErr != nil {
		return f.releaseErr
	}
	f.status = LockStatus{}
	return nil
}

func (f *fakeLockService) Heartbeat(_ context.Context, _ int64, _ LockHolder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeatCalls++
	return f.heartbeatErr
}

func (f *fakeLockService) current() LockStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneStatus(f.status)
}

func (f *fakeLockService) setStatus(s LockStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

func (f *fakeLockService) counts() (status, acquire, release, heartbeat int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls, f.acquireCalls, f.releaseCalls, f.heartbeatCalls
}

func lockedBy(userID int64, username string) LockStatus {
	at := time.Unix(1_700_000_000, 0)
	return LockStatus{
		IsLocked: true,
		LockedBy: &LockHolder{UserID: userID, Username: username},
		LockedAt: &at,
	}
}

func newTestEngine(t *testing.T, sessions SessionService, locks LockService) (*Engine, *manualClock) {
	t.Helper()

	clk := newManualClock(time.Unix(1_700_000_000, 0))
	engine, err := New().
		WithSessionService(sessions).
		WithLockService(locks).
		WithClock(clk).
		WithLogger(log.New(io.Discard, "", 0)).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, clk
}

func seedSession(t *testing.T, engine *Engine, userID int64, username string) {
	t.Helper()
	err := engine.Auth().Save(context.Background(), "token-1", &Profile{UserID: userID, Username: username})
	if err != nil {
		t.Fatalf("seed save failed: %v", err)
	}
}

// waitFor polls until cond holds or the deadline passes. Used to observe
// work done by the heartbeat goroutine after a clock advance.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestLoginSuccessPersistsSession(t *testing.T) {
	sessions := &fakeSessionService{
		loginToken:   "token-1",
		loginProfile: &Profile{UserID: 7, Username: "alice"},
	}
	engine, _ := newTestEngine(t, sessions, &fakeLockService{})

	profile, err := engine.Login(context.Background(), "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if profile.UserID != 7 || profile.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if !engine.Auth().IsLoggedIn() {
		t.Fatal("expected logged-in state after login")
	}
	if got := engine.Auth().Token(); got != "token-1" {
		t.Fatalf("expected token-1, got %q", got)
	}
	if got := engine.metrics.Value(MetricLoginSuccess); got != 1 {
		t.Fatalf("expected MetricLoginSuccess=1, got %d", got)
	}
}

func TestLoginFailurePropagates(t *testing.T) {
	sessions := &fakeSessionService{loginErr: ErrInvalidCredentials}
	engine, _ := newTestEngine(t, sessions, &fakeLockService{})

	_, err := engine.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if engine.Auth().IsLoggedIn() {
		t.Fatal("expected logged-out state after failed login")
	}
	if got := engine.metrics.Value(MetricLoginFailure); got != 1 {
		t.Fatalf("expected MetricLoginFailure=1, got %d", got)
	}
}

func TestLoginAmbiguousSuccessRejected(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		profile *Profile
	}{
		{name: "missing token", token: "", profile: &Profile{UserID: 7, Username: "alice"}},
		{name: "missing profile", token: "token-1", profile: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sessions := &fakeSessionService{loginToken: tc.token, loginProfile: tc.profile}
			engine, _ := newTestEngine(t, sessions, &fakeLockService{})

			_, err := engine.Login(context.Background(), "alice@example.com", "pw")
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
			if engine.Auth().IsLoggedIn() {
				t.Fatal("expected logged-out state")
			}
		})
	}
}

func TestLogoutClearsLocalEvenWhenRemoteFails(t *testing.T) {
	sessions := &fakeSessionService{logoutErr: errors.New("server unreachable")}
	engine, _ := newTestEngine(t, sessions, &fakeLockService{})
	seedSession(t, engine, 7, "alice")

	if err := engine.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if engine.Auth().IsLoggedIn() {
		t.Fatal("expected logged-out state after logout")
	}
	if got := sessions.logoutCount(); got != 1 {
		t.Fatalf("expected 1 remote logout attempt, got %d", got)
	}
}

func TestLogoutWithoutSessionSkipsRemoteCall(t *testing.T) {
	sessions := &fakeSessionService{}
	engine, _ := newTestEngine(t, sessions, &fakeLockService{})

	if err := engine.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if got := sessions.logoutCount(); got != 0 {
		t.Fatalf("expected no remote logout call, got %d", got)
	}
}

func TestNavigateReleasesCoordinatorLocks(t *testing.T) {
	sessions := &fakeSessionService{validateProfile: &Profile{UserID: 7, Username: "alice"}}
	locks := &fakeLockService{}
	engine, _ := newTestEngine(t, sessions, locks)
	seedSession(t, engine, 7, "alice")

	c := engine.NewCoordinator(42)
	c.InitLock(context.Background())
	if !c.Status().HeldBy(7) {
		t.Fatalf("expected lock held by user 7, got %+v", c.Status())
	}

	decision := engine.Navigate(context.Background(), "/")
	if !decision.Allow {
		t.Fatalf("expected login path navigation allowed, got %+v", decision)
	}

	_, _, releases, _ := locks.counts()
	if releases != 1 {
		t.Fatalf("expected 1 release on navigation, got %d", releases)
	}
	if locks.current().IsLocked {
		t.Fatal("expected server lock released")
	}
}

func TestCloseCleansUpCoordinatorsOnce(t *testing.T) {
	sessions := &fakeSessionService{}
	locks := &fakeLockService{}
	clk := newManualClock(time.Unix(1_700_000_000, 0))
	engine, err := New().
		WithSessionService(sessions).
		WithLockService(locks).
		WithClock(clk).
		WithLogger(log.New(io.Discard, "", 0)).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	seedSession(t, engine, 7, "alice")

	c := engine.NewCoordinator(42)
	c.InitLock(context.Background())

	engine.Close()
	engine.Close()

	_, _, releases, _ := locks.counts()
	if releases != 1 {
		t.Fatalf("expected exactly 1 release across repeated Close, got %d", releases)
	}

	// The heartbeat must be stopped: further ticks produce no calls.
	clk.Advance(90 * time.Second)
	time.Sleep(20 * time.Millisecond)
	_, _, _, heartbeats := locks.counts()
	if heartbeats != 0 {
		t.Fatalf("expected no heartbeats after Close, got %d", heartbeats)
	}
}

func TestMetricsSnapshotExposesEngineCounters(t *testing.T) {
	sessions := &fakeSessionService{
		loginToken:   "token-1",
		loginProfile: &Profile{UserID: 7, Username: "alice"},
	}
	engine, _ := newTestEngine(t, sessions, &fakeLockService{})

	if _, err := engine.Login(context.Background(), "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("expected MetricLoginSuccess=1 in snapshot, got %d", snap.Counters[MetricLoginSuccess])
	}
}
