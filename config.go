package issueguard

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by issueguard APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Guard   GuardConfig
	Lock    LockConfig
	Storage StorageConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
GUARD CONFIG
====================================
*/

// GuardConfig defines a public type used by issueguard APIs.
//
// GuardConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GuardConfig struct {
	// LoginPath is the public login surface. Navigations to it bypass the
	// session check, and failed checks redirect to it.
	LoginPath string
	// HomePath is the authenticated landing surface the guest guard
	// redirects already-logged-in visitors to.
	HomePath string
	// VerifyTimeout bounds the server validation round trip per navigation.
	// Zero means no per-call deadline beyond the caller's context.
	VerifyTimeout time.Duration
}

/*
====================================
LOCK CONFIG
====================================
*/

// LockConfig defines a public type used by issueguard APIs.
//
// LockConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LockConfig struct {
	// HeartbeatInterval is the fixed period between renewal ticks while a
	// coordinator believes it holds the lock.
	HeartbeatInterval time.Duration
	// LeaseTTL is the server-side lease the reference lock service grants
	// per acquire or heartbeat. It must comfortably exceed
	// HeartbeatInterval so a single missed tick does not drop the lock.
	LeaseTTL time.Duration
	// RequestTimeout bounds each lock service round trip issued from a
	// background path (heartbeat, navigation release, shutdown release).
	RequestTimeout time.Duration
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig defines a public type used by issueguard APIs.
//
// StorageConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StorageConfig struct {
	// TokenKey and ProfileKey are the two durable entries the auth store
	// writes and clears together.
	TokenKey   string
	ProfileKey string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by issueguard APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull keeps Emit non-blocking by discarding events when the
	// buffer is full; dropped events are counted, not lost silently.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by issueguard APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Guard: GuardConfig{
			LoginPath:     "/",
			HomePath:      "/issue",
			VerifyTimeout: 10 * time.Second,
		},
		Lock: LockConfig{
			HeartbeatInterval: 30 * time.Second,
			LeaseTTL:          90 * time.Second,
			RequestTimeout:    5 * time.Second,
		},
		Storage: StorageConfig{
			TokenKey:   "token",
			ProfileKey: "userProfile",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types today; the explicit clone point keeps the
	// builder contract stable if reference fields are ever added.
	return cfg
}

func validateConfig(cfg Config) error {
	if !strings.HasPrefix(cfg.Guard.LoginPath, "/") {
		return errors.New("guard login path must be absolute")
	}
	if !strings.HasPrefix(cfg.Guard.HomePath, "/") {
		return errors.New("guard home path must be absolute")
	}
	if cfg.Guard.LoginPath == cfg.Guard.HomePath {
		return errors.New("guard login and home paths must differ")
	}
	if cfg.Lock.HeartbeatInterval <= 0 {
		return errors.New("lock heartbeat interval must be positive")
	}
	if cfg.Lock.LeaseTTL <= cfg.Lock.HeartbeatInterval {
		return errors.New("lock lease TTL must exceed the heartbeat interval")
	}
	if cfg.Storage.TokenKey == "" || cfg.Storage.ProfileKey == "" {
		return errors.New("storage keys must be non-empty")
	}
	if cfg.Storage.TokenKey == cfg.Storage.ProfileKey {
		return errors.New("storage token and profile keys must differ")
	}
	if cfg.Audit.Enabled && cfg.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive when audit is enabled")
	}
	return nil
}
