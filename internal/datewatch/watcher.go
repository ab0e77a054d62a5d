// Package datewatch detects the wall-clock date advancing while the
// process runs. Polling plus an explicit poke on resume is deliberately
// simple: rollover work downstream recomputes from live state, so a
// missed tick costs nothing and a duplicate tick is harmless.
package datewatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybook-ai/daybook/internal/clock"
)

const defaultInterval = 60 * time.Second

// Watcher polls the calendar date in a fixed location and invokes a
// callback when it changes. The callback must be re-entrant safe: two
// rollovers firing close together must both be correct, which holds as
// long as the callback derives state fresh rather than applying deltas.
type Watcher struct {
	clk      clock.Clock
	loc      *time.Location
	interval time.Duration
	onChange func(newDate string)
	log      zerolog.Logger

	mu   sync.Mutex
	last string
	poke chan struct{}
}

// New builds a watcher. A non-positive interval falls back to one minute.
func New(clk clock.Clock, loc *time.Location, interval time.Duration, onChange func(string), log zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Watcher{
		clk:      clk,
		loc:      loc,
		interval: interval,
		onChange: onChange,
		log:      log,
		last:     clock.Today(clk, loc),
		poke:     make(chan struct{}, 1),
	}
}

// Current returns the last observed date.
func (w *Watcher) Current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Poke forces an immediate check, covering the backgrounded-across-
// midnight case where no tick fired. Non-blocking; a pending poke is
// collapsed into the one already queued.
func (w *Watcher) Poke() {
	select {
	case w.poke <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. The ticker stops with the context,
// so teardown/logout only needs to cancel ctx.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check()
		case <-w.poke:
			w.check()
		}
	}
}

func (w *Watcher) check() {
	now := clock.Today(w.clk, w.loc)

	w.mu.Lock()
	changed := now != w.last
	if changed {
		w.last = now
	}
	w.mu.Unlock()

	if changed {
		w.log.Info().Str("date", now).Msg("calendar date rolled over")
		w.onChange(now)
	}
}
