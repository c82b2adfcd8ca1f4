package issueguard

import (
	"errors"
	"log"

	"github.com/mccescario1995/issueguard/authstore"
	"github.com/mccescario1995/issueguard/storage"
)

// Builder defines a public type used by issueguard APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	backend  storage.Backend
	sessions SessionService
	locks    LockService
	sink     AuditSink
	clock    Clock
	logger   *log.Logger

	built bool
}

// New describes the new operation and its observable behavior.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage sets the durable backend for the session store. When omitted,
// an in-process memory backend is used.
func (b *Builder) WithStorage(backend storage.Backend) *Builder {
	b.backend = backend
	return b
}

// WithSessionService describes the withsessionservice operation and its observable behavior.
func (b *Builder) WithSessionService(s SessionService) *Builder {
	b.sessions = s
	return b
}

// WithLockService describes the withlockservice operation and its observable behavior.
func (b *Builder) WithLockService(l LockService) *Builder {
	b.locks = l
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithClock overrides the wall clock, primarily for tests.
func (b *Builder) WithClock(c Clock) *Builder {
	b.clock = c
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
func (b *Builder) WithLogger(l *log.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build assembles the engine. The builder is single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.sessions == nil {
		return nil, errors.New("session service required")
	}
	if b.locks == nil {
		return nil, errors.New("lock service required")
	}

	backend := b.backend
	if backend == nil {
		backend = storage.NewMemory()
	}
	clk := b.clock
	if clk == nil {
		clk = systemClock{}
	}
	logger := b.logger
	if logger == nil {
		logger = log.Default()
	}

	engine := &Engine{
		config:   b.config,
		auth:     authstore.NewStore(backend, b.config.Storage.TokenKey, b.config.Storage.ProfileKey),
		sessions: b.sessions,
		locks:    b.locks,
		audit:    newAuditDispatcher(b.config.Audit, b.sink),
		metrics:  NewMetrics(b.config.Metrics),
		clock:    clk,
		logger:   logger,
	}

	return engine, nil
}
