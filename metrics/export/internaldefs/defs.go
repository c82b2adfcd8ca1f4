// Package internaldefs carries the shared metric name/help definitions used
// by the Prometheus and OpenTelemetry exporters. It is internal to the
// export tree; applications consume the exporters, not these tables.
package internaldefs

import (
	issueguard "github.com/mccescario1995/issueguard"
)

// CounterDef defines a public type used by issueguard APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   issueguard.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by issueguard APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   issueguard.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the coordination engine.
var CounterDefs = []CounterDef{
	{ID: issueguard.MetricGuardAllowed, Name: "issueguard_guard_allowed_total", Help: "Guarded navigations allowed through."},
	{ID: issueguard.MetricGuardRedirected, Name: "issueguard_guard_redirected_total", Help: "Guarded navigations redirected to login."},
	{ID: issueguard.MetricGuestRedirected, Name: "issueguard_guest_redirected_total", Help: "Guest-surface visits redirected to the landing page."},
	{ID: issueguard.MetricSessionHydrated, Name: "issueguard_session_hydrated_total", Help: "Session hydrations from durable storage."},
	{ID: issueguard.MetricSessionValidated, Name: "issueguard_session_validated_total", Help: "Server-side session validations that succeeded."},
	{ID: issueguard.MetricSessionRejected, Name: "issueguard_session_rejected_total", Help: "Server-side session validations that failed."},
	{ID: issueguard.MetricLoginSuccess, Name: "issueguard_login_success_total", Help: "Successful login attempts."},
	{ID: issueguard.MetricLoginFailure, Name: "issueguard_login_failure_total", Help: "Failed login attempts."},
	{ID: issueguard.MetricLogout, Name: "issueguard_logout_total", Help: "Logout operations."},
	{ID: issueguard.MetricLockStatusChecked, Name: "issueguard_lock_status_checked_total", Help: "Successful lock status fetches."},
	{ID: issueguard.MetricLockStatusFailed, Name: "issueguard_lock_status_failed_total", Help: "Lock status fetches that failed and reset to unlocked."},
	{ID: issueguard.MetricLockAcquired, Name: "issueguard_lock_acquired_total", Help: "Successful lock acquisitions."},
	{ID: issueguard.MetricLockConflict, Name: "issueguard_lock_conflict_total", Help: "Lock acquisitions rejected because another user holds the lock."},
	{ID: issueguard.MetricLockReleased, Name: "issueguard_lock_released_total", Help: "Successful lock releases."},
	{ID: issueguard.MetricLockReleaseFailed, Name: "issueguard_lock_release_failed_total", Help: "Best-effort lock releases that failed."},
	{ID: issueguard.MetricHeartbeatSent, Name: "issueguard_heartbeat_sent_total", Help: "Heartbeat renewals sent."},
	{ID: issueguard.MetricHeartbeatSkipped, Name: "issueguard_heartbeat_skipped_total", Help: "Heartbeat ticks skipped because the lock is not held by this session or a renewal is in flight."},
	{ID: issueguard.MetricHeartbeatFailed, Name: "issueguard_heartbeat_failed_total", Help: "Heartbeat renewals that failed."},
}

// HistogramDefs is an exported constant or variable used by the coordination engine.
var HistogramDefs = []HistogramDef{
	{ID: issueguard.MetricVerifyLatency, Name: "issueguard_verify_latency_seconds", Help: "Session verification latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the coordination engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the coordination engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
