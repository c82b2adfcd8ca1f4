package issueguard

import "time"

// Clock supplies wall time and periodic tickers to the engine so heartbeat
// scheduling can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is a cancellable periodic tick source. After Stop returns, no
// further tick is delivered on Chan.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type systemClock struct{}

type systemTicker struct {
	t *time.Ticker
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

func (s *systemTicker) Chan() <-chan time.Time {
	return s.t.C
}

func (s *systemTicker) Stop() {
	s.t.Stop()
}
