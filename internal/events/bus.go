// Package events provides a small in-process event bus. Producers
// publish without blocking; a single consumer drains the channel.
package events

import (
	"context"

	"github.com/rs/zerolog"
)

// Kind identifies the event type carried on the bus.
type Kind string

const (
	// KindDayCompleted fires when a day first reaches done status.
	KindDayCompleted Kind = "day_completed"
	// KindDateRolled fires when the local calendar date changes.
	KindDateRolled Kind = "date_rolled"
)

// Event is the payload published on the bus.
type Event struct {
	Kind   Kind
	UserID string
	Date   string
}

// Bus is a buffered fan-in channel. Publish drops events when the
// buffer is full rather than blocking request paths; consumers that
// fall behind recompute from the store on their next pass anyway.
type Bus struct {
	ch  chan Event
	log zerolog.Logger
}

// NewBus creates a bus with the given buffer size (minimum 1).
func NewBus(size int, log zerolog.Logger) *Bus {
	if size < 1 {
		size = 1
	}
	return &Bus{ch: make(chan Event, size), log: log.With().Str("component", "events").Logger()}
}

// Publish enqueues the event, dropping it if the buffer is full.
func (b *Bus) Publish(ev Event) {
	select {
	case b.ch <- ev:
	default:
		b.log.Warn().Str("kind", string(ev.Kind)).Str("user_id", ev.UserID).Msg("event bus full, dropping event")
	}
}

// C returns the receive side of the bus.
func (b *Bus) C() <-chan Event { return b.ch }

// Drain consumes events until ctx is done, invoking fn for each.
func (b *Bus) Drain(ctx context.Context, fn func(context.Context, Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.ch:
			fn(ctx, ev)
		}
	}
}
