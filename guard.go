package issueguard

import (
	"context"
	"errors"
)

// User-visible notices surfaced exactly once before a login redirect.
const (
	NoticeSessionExpired = "Your session has expired. Please log in again."
	NoticeSessionEnded   = "Your session could not be verified. Please log in again."
)

// GuardRoute decides whether a navigation to a protected path may proceed.
//
// The hydrate step is a fast, possibly-stale read for immediate UI feedback
// and is never trusted for the decision: the session service is consulted
// on every guarded navigation, because a locally cached session can be
// invalidated server-side independent of client state. Every failure kind —
// transport, server, unauthorized — fails closed: local session cleared,
// redirect to the login path. No retry happens here; the next navigation
// re-runs the whole sequence.
func (e *Engine) GuardRoute(ctx context.Context, path string) Decision {
	if e == nil || e.sessions == nil {
		return redirectDecision("/", NoticeSessionEnded)
	}

	// The login surface itself is never guarded; anything else would loop.
	if path == e.config.Guard.LoginPath {
		return allowDecision()
	}

	if err := e.auth.Load(ctx); err != nil {
		e.logf("issueguard: session hydrate failed: %v", err)
	}
	e.metricInc(MetricSessionHydrated)

	vctx := ctx
	if e.config.Guard.VerifyTimeout > 0 {
		var cancel context.CancelFunc
		vctx, cancel = context.WithTimeout(ctx, e.config.Guard.VerifyTimeout)
		defer cancel()
	}

	start := e.clock.Now()
	profile, err := e.sessions.Validate(vctx, e.auth.Token())
	if e.metrics != nil {
		e.metrics.Observe(MetricVerifyLatency, e.clock.Now().Sub(start))
	}

	if err == nil && profile != nil {
		if saveErr := e.auth.Save(ctx, e.auth.Token(), profile); saveErr == nil {
			e.metricInc(MetricSessionValidated)
			e.metricInc(MetricGuardAllowed)
			e.emit(ctx, AuditEvent{EventType: EventSessionValidated, UserID: profile.UserID, Username: profile.Username, Path: path, Success: true})
			return allowDecision()
		}
		// A session we cannot persist is treated like one we cannot
		// verify.
		err = ErrStorageUnavailable
	}

	notice := NoticeSessionEnded
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) {
		notice = NoticeSessionExpired
	}

	if clearErr := e.auth.Clear(ctx); clearErr != nil {
		e.logf("issueguard: session clear failed: %v", clearErr)
	}
	e.metricInc(MetricSessionRejected)
	e.metricInc(MetricGuardRedirected)
	event := AuditEvent{EventType: EventSessionRejected, Path: path}
	if err != nil {
		event.Error = err.Error()
	}
	e.emit(ctx, event)

	return redirectDecision(e.config.Guard.LoginPath, notice)
}

// GuardGuest is the login-surface counterpart: hydrate from storage only —
// no server round trip, so the login page renders even when the backend is
// unreachable — and send already-authenticated visitors to the landing
// surface.
func (e *Engine) GuardGuest(ctx context.Context, path string) Decision {
	if e == nil {
		return allowDecision()
	}

	// Skip on the landing surface itself to prevent redirect loops.
	if path == e.config.Guard.HomePath {
		return allowDecision()
	}

	if err := e.auth.Load(ctx); err != nil {
		e.logf("issueguard: session hydrate failed: %v", err)
	}

	if e.auth.Profile() != nil {
		e.metricInc(MetricGuestRedirected)
		return redirectDecision(e.config.Guard.HomePath, "")
	}
	return allowDecision()
}
