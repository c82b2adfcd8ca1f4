package issueguard

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by issueguard APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricGuardAllowed is an exported constant or variable used by the coordination engine.
	MetricGuardAllowed MetricID = iota
	// MetricGuardRedirected is an exported constant or variable used by the coordination engine.
	MetricGuardRedirected
	// MetricGuestRedirected is an exported constant or variable used by the coordination engine.
	MetricGuestRedirected
	// MetricSessionHydrated is an exported constant or variable used by the coordination engine.
	MetricSessionHydrated
	// MetricSessionValidated is an exported constant or variable used by the coordination engine.
	MetricSessionValidated
	// MetricSessionRejected is an exported constant or variable used by the coordination engine.
	MetricSessionRejected
	// MetricLoginSuccess is an exported constant or variable used by the coordination engine.
	MetricLoginSuccess
	// MetricLoginFailure is an exported constant or variable used by the coordination engine.
	MetricLoginFailure
	// MetricLogout is an exported constant or variable used by the coordination engine.
	MetricLogout
	// MetricLockStatusChecked is an exported constant or variable used by the coordination engine.
	MetricLockStatusChecked
	// MetricLockStatusFailed is an exported constant or variable used by the coordination engine.
	MetricLockStatusFailed
	// MetricLockAcquired is an exported constant or variable used by the coordination engine.
	MetricLockAcquired
	// MetricLockConflict is an exported constant or variable used by the coordination engine.
	MetricLockConflict
	// MetricLockReleased is an exported constant or variable used by the coordination engine.
	MetricLockReleased
	// MetricLockReleaseFailed is an exported constant or variable used by the coordination engine.
	MetricLockReleaseFailed
	// MetricHeartbeatSent is an exported constant or variable used by the coordination engine.
	MetricHeartbeatSent
	// MetricHeartbeatSkipped is an exported constant or variable used by the coordination engine.
	MetricHeartbeatSkipped
	// MetricHeartbeatFailed is an exported constant or variable used by the coordination engine.
	MetricHeartbeatFailed
	// MetricVerifyLatency is an exported constant or variable used by the coordination engine.
	MetricVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by issueguard APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by issueguard APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled describes the enabled operation and its observable behavior.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe describes the observe operation and its observable behavior.
//
// Observe does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricVerifyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value describes the value operation and its observable behavior.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricVerifyLatency].buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
