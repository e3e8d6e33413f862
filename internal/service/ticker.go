package service

import "time"

// Ticker abstracts the elapsed-time tick source so tests can drive ticks
// manually. Exactly one ticker is live per in-progress session.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds the tick source for a new session.
type TickerFactory func(interval time.Duration) Ticker

type wallClockTicker struct {
	t *time.Ticker
}

func (w wallClockTicker) C() <-chan time.Time { return w.t.C }
func (w wallClockTicker) Stop()               { w.t.Stop() }

// NewWallClockTicker is the production TickerFactory.
func NewWallClockTicker(interval time.Duration) Ticker {
	return wallClockTicker{t: time.NewTicker(interval)}
}
