package events

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishAndDrain(t *testing.T) {
	bus := NewBus(4, zerolog.Nop())

	bus.Publish(Event{Kind: KindDayCompleted, UserID: "u1", Date: "2025-03-01"})
	bus.Publish(Event{Kind: KindDateRolled, Date: "2025-03-02"})

	ctx, cancel := context.WithCancel(context.Background())
	var got []Event
	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Drain(ctx, func(_ context.Context, ev Event) {
			got = append(got, ev)
			if len(got) == 2 {
				cancel()
			}
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drain did not observe both events")
	}
	require.Len(t, got, 2)
	assert.Equal(t, KindDayCompleted, got[0].Kind)
	assert.Equal(t, "u1", got[0].UserID)
	assert.Equal(t, KindDateRolled, got[1].Kind)
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus(1, zerolog.Nop())
	bus.Publish(Event{Kind: KindDayCompleted, UserID: "u1"})
	// buffer full, this one is dropped rather than blocking
	bus.Publish(Event{Kind: KindDayCompleted, UserID: "u2"})

	select {
	case ev := <-bus.C():
		assert.Equal(t, "u1", ev.UserID)
	default:
		t.Fatal("expected first event on the bus")
	}
	select {
	case <-bus.C():
		t.Fatal("second event should have been dropped")
	default:
	}
}
