package issueguard

import (
	"context"
	"sync"
	"sync/atomic"
)

// Coordinator mediates exclusive edit access to one issue between the local
// viewer and any other holder. The server enforces the lock; the
// coordinator mirrors it, keeps a genuinely-held lock alive via heartbeat,
// and releases eagerly on every plausible exit path, accepting redundant
// release calls as the cost of never leaking a lock.
//
// Coordinators are independent across issues. All methods are safe for
// concurrent use.
type Coordinator struct {
	engine  *Engine
	issueID int64

	mu     sync.Mutex
	status LockStatus

	hbMu       sync.Mutex
	hbTicker   Ticker
	hbDone     chan struct{}
	hbWg       sync.WaitGroup
	hbInFlight atomic.Bool

	cleanupOnce sync.Once
}

// IssueID returns the issue this coordinator is scoped to.
func (c *Coordinator) IssueID() int64 {
	return c.issueID
}

// Status returns a copy of the cached lock view. It is possibly stale; only
// CheckLockStatus refreshes it from the server.
func (c *Coordinator) Status() LockStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneStatus(c.status)
}

// Editable reports whether the local viewer may edit: true when the issue
// is unlocked or locked by the current session's own user id. Pure
// projection over the cached status and the session profile; no I/O.
func (c *Coordinator) Editable() bool {
	status := c.Status()
	if !status.IsLocked {
		return true
	}
	profile := c.engine.Auth().Profile()
	return profile != nil && status.HeldBy(profile.UserID)
}

// CheckLockStatus replaces the cached view with a fresh server read. On
// transport failure the view resets to unlocked — failing open keeps the
// UI responsive; the server still rejects writes from non-holders.
func (c *Coordinator) CheckLockStatus(ctx context.Context) {
	status, err := c.engine.locks.Status(ctx, c.issueID)
	if err != nil {
		c.engine.logf("issueguard: lock status fetch failed for issue %d: %v", c.issueID, err)
		c.engine.metricInc(MetricLockStatusFailed)
		c.setStatus(Unlocked())
		return
	}
	c.engine.metricInc(MetricLockStatusChecked)
	c.setStatus(status)
}

// AcquireLock requests the lock for the current session's identity. The
// optimistic outcome is never assumed: success re-fetches authoritative
// status. A conflict adopts the holder details from the error payload
// directly, avoiding an extra round trip; any other failure falls back to
// a status fetch.
func (c *Coordinator) AcquireLock(ctx context.Context) {
	owner := c.owner()
	err := c.engine.locks.Acquire(ctx, c.issueID, owner)
	if err == nil {
		c.engine.metricInc(MetricLockAcquired)
		c.engine.emit(ctx, AuditEvent{EventType: EventLockAcquired, UserID: owner.UserID, Username: owner.Username, IssueID: c.issueID, Success: true})
		c.CheckLockStatus(ctx)
		return
	}

	if status, ok := IsConflict(err); ok {
		c.setStatus(status)
		c.engine.metricInc(MetricLockConflict)
		event := AuditEvent{EventType: EventLockConflict, UserID: owner.UserID, IssueID: c.issueID, Error: err.Error()}
		if status.LockedBy != nil {
			event.Metadata = map[string]string{"held_by": status.LockedBy.Username}
		}
		c.engine.emit(ctx, event)
		return
	}

	c.engine.logf("issueguard: lock acquire failed for issue %d: %v", c.issueID, err)
	c.CheckLockStatus(ctx)
}

// ReleaseLock drops the lock best-effort. It runs in cleanup and
// navigation paths and therefore never propagates a failure.
func (c *Coordinator) ReleaseLock(ctx context.Context) {
	owner := c.owner()
	if err := c.engine.locks.Release(ctx, c.issueID, owner); err != nil {
		c.engine.logf("issueguard: lock release failed for issue %d: %v", c.issueID, err)
		c.engine.metricInc(MetricLockReleaseFailed)
		c.engine.emit(ctx, AuditEvent{EventType: EventLockReleaseFail, UserID: owner.UserID, IssueID: c.issueID, Error: err.Error()})
		return
	}
	c.engine.metricInc(MetricLockReleased)
	c.engine.emit(ctx, AuditEvent{EventType: EventLockReleased, UserID: owner.UserID, IssueID: c.issueID, Success: true})
}

// StartHeartbeat begins periodic renewal ticks. Idempotent: a second call
// while a heartbeat is active does nothing. Each tick renews only when the
// cached status shows this session's own user id as holder, so heartbeating
// a lock someone else holds is a no-op.
func (c *Coordinator) StartHeartbeat() {
	c.hbMu.Lock()
	defer c.hbMu.Unlock()

	if c.hbTicker != nil {
		return
	}

	ticker := c.engine.clock.NewTicker(c.engine.config.Lock.HeartbeatInterval)
	done := make(chan struct{})
	c.hbTicker = ticker
	c.hbDone = done

	c.hbWg.Add(1)
	go c.heartbeatLoop(ticker, done)
}

// StopHeartbeat cancels the renewal ticks. Idempotent; when it returns, no
// further heartbeat fires.
func (c *Coordinator) StopHeartbeat() {
	c.hbMu.Lock()
	defer c.hbMu.Unlock()

	if c.hbTicker == nil {
		return
	}

	c.hbTicker.Stop()
	close(c.hbDone)
	c.hbWg.Wait()
	c.hbTicker = nil
	c.hbDone = nil
}

// InitLock is the composite entry sequence for an editable view: read
// authoritative status, acquire only if currently unlocked (never over an
// existing holder), then start heartbeating regardless — the tick guard
// makes heartbeats a no-op unless this session actually holds the lock.
func (c *Coordinator) InitLock(ctx context.Context) {
	c.CheckLockStatus(ctx)

	if !c.Status().IsLocked {
		c.AcquireLock(ctx)
	}

	c.StartHeartbeat()
}

// Cleanup is the composite exit sequence: stop heartbeat, then best-effort
// release. Repeated calls produce exactly one outward release attempt.
func (c *Coordinator) Cleanup(ctx context.Context) {
	c.cleanupOnce.Do(func() {
		c.StopHeartbeat()
		c.ReleaseLock(ctx)
	})
}

func (c *Coordinator) heartbeatLoop(ticker Ticker, done chan struct{}) {
	defer c.hbWg.Done()

	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			c.heartbeatTick()
		}
	}
}

func (c *Coordinator) heartbeatTick() {
	status := c.Status()
	profile := c.engine.Auth().Profile()
	if profile == nil || !status.HeldBy(profile.UserID) {
		c.engine.metricInc(MetricHeartbeatSkipped)
		return
	}

	// A slow renewal must not stack a second in-flight request behind it.
	if !c.hbInFlight.CompareAndSwap(false, true) {
		c.engine.metricInc(MetricHeartbeatSkipped)
		return
	}
	defer c.hbInFlight.Store(false)

	ctx, cancel := c.engine.requestContext()
	defer cancel()

	owner := LockHolder{UserID: profile.UserID, Username: profile.Username}
	if err := c.engine.locks.Heartbeat(ctx, c.issueID, owner); err != nil {
		// The cached status is not touched here; the next status read is
		// the source of truth, so a transient blip does not flap the UI.
		c.engine.logf("issueguard: heartbeat failed for issue %d: %v", c.issueID, err)
		c.engine.metricInc(MetricHeartbeatFailed)
		c.engine.emit(ctx, AuditEvent{EventType: EventHeartbeatFailed, UserID: owner.UserID, IssueID: c.issueID, Error: err.Error()})
		return
	}
	c.engine.metricInc(MetricHeartbeatSent)
}

func (c *Coordinator) setStatus(status LockStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *Coordinator) owner() LockHolder {
	profile := c.engine.Auth().Profile()
	if profile == nil {
		return LockHolder{}
	}
	return LockHolder{UserID: profile.UserID, Username: profile.Username}
}

func cloneStatus(s LockStatus) LockStatus {
	out := LockStatus{IsLocked: s.IsLocked}
	if s.LockedBy != nil {
		holder := *s.LockedBy
		out.LockedBy = &holder
	}
	if s.LockedAt != nil {
		at := *s.LockedAt
		out.LockedAt = &at
	}
	return out
}
