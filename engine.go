package issueguard

import (
	"context"
	"log"
	"sync"

	"github.com/mccescario1995/issueguard/authstore"
)

// Engine defines a public type used by issueguard APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// One Engine corresponds to one browser context's worth of state: a single
// session, any number of per-issue coordinators.
type Engine struct {
	config   Config
	auth     *authstore.Store
	sessions SessionService
	locks    LockService
	audit    *auditDispatcher
	metrics  *Metrics
	clock    Clock
	logger   *log.Logger

	mu           sync.Mutex
	navHooks     []func(ctx context.Context, to string)
	coordinators []*Coordinator
	closed       bool
}

// Auth returns the engine's session store. Callers read it; only the engine
// and the store itself write it.
func (e *Engine) Auth() *authstore.Store {
	if e == nil {
		return nil
	}
	return e.auth
}

// Login authenticates against the session service and persists the
// resulting session. The returned profile is the caller's copy.
func (e *Engine) Login(ctx context.Context, email, password string) (*Profile, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	token, profile, err := e.sessions.Login(ctx, email, password)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emit(ctx, AuditEvent{EventType: EventSessionLogin, Error: err.Error()})
		return nil, err
	}
	if token == "" || profile == nil {
		// An ambiguous success is never trusted.
		e.metricInc(MetricLoginFailure)
		e.emit(ctx, AuditEvent{EventType: EventSessionLogin, Error: ErrUnauthorized.Error()})
		return nil, ErrUnauthorized
	}

	if err := e.auth.Save(ctx, token, profile); err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emit(ctx, AuditEvent{EventType: EventSessionLogin, UserID: profile.UserID, Username: profile.Username, Success: true})
	return profile.Clone(), nil
}

// Logout ends the remote session best-effort and always clears local state,
// mirroring the safe-state rule: a failed server logout must not leave the
// client looking logged in.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}

	profile := e.auth.Profile()
	if token := e.auth.Token(); token != "" && e.sessions != nil {
		if err := e.sessions.Logout(ctx, token); err != nil {
			e.logf("issueguard: remote logout failed: %v", err)
		}
	}

	err := e.auth.Clear(ctx)
	e.metricInc(MetricLogout)
	event := AuditEvent{EventType: EventSessionLogout, Success: err == nil}
	if profile != nil {
		event.UserID = profile.UserID
		event.Username = profile.Username
	}
	e.emit(ctx, event)
	return err
}

// Navigate processes one navigation event: it first fires every registered
// navigation hook (coordinators release their locks here — deliberately on
// any navigation, not just navigation away from their issue), then runs the
// route guard for the target path.
func (e *Engine) Navigate(ctx context.Context, to string) Decision {
	if e == nil {
		return redirectDecision("/", "")
	}

	e.mu.Lock()
	hooks := make([]func(context.Context, string), len(e.navHooks))
	copy(hooks, e.navHooks)
	e.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx, to)
	}

	return e.GuardRoute(ctx, to)
}

// NewCoordinator creates the lock coordinator for one issue and registers
// its release triggers (any subsequent navigation, and engine shutdown).
func (e *Engine) NewCoordinator(issueID int64) *Coordinator {
	c := &Coordinator{
		engine:  e,
		issueID: issueID,
	}

	e.mu.Lock()
	e.coordinators = append(e.coordinators, c)
	e.navHooks = append(e.navHooks, func(ctx context.Context, _ string) {
		c.ReleaseLock(ctx)
	})
	e.mu.Unlock()

	return c
}

// Close is the unload analog: every live coordinator is cleaned up (stop
// heartbeat, best-effort release), then the audit dispatcher drains. Safe
// to call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	coordinators := make([]*Coordinator, len(e.coordinators))
	copy(coordinators, e.coordinators)
	e.mu.Unlock()

	ctx, cancel := e.requestContext()
	defer cancel()
	for _, c := range coordinators {
		c.Cleanup(ctx)
	}

	if e.audit != nil {
		e.audit.Close()
	}
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.clock.Now()
	}
	e.audit.Emit(ctx, event)
}

func (e *Engine) logf(format string, args ...any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Printf(format, args...)
}

func (e *Engine) requestContext() (context.Context, context.CancelFunc) {
	if e.config.Lock.RequestTimeout > 0 {
		return context.WithTimeout(context.Background(), e.config.Lock.RequestTimeout)
	}
	return context.WithCancel(context.Background())
}
