package clock

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/studyhall/roomsync/internal/models"
)

// DefaultTickInterval is how often a display ticker re-derives elapsed
// time between state change notifications.
const DefaultTickInterval = time.Second

// Ticker re-runs Elapsed once per interval against the latest known
// timer state and reports the result to a callback. The state is
// replaced wholesale on every change notification; the ticker never
// keeps a running counter of its own.
type Ticker struct {
	clock    clockwork.Clock
	interval time.Duration
	onTick   func(elapsed int)

	mu    sync.Mutex
	state *models.RoomTimerState
}

// NewTicker creates a display ticker. In production pass
// clockwork.NewRealClock(); tests use a FakeClock.
func NewTicker(clock clockwork.Clock, interval time.Duration, onTick func(elapsed int)) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Ticker{
		clock:    clock,
		interval: interval,
		onTick:   onTick,
	}
}

// SetState replaces the ticker's view of the authoritative state and
// immediately reports the re-derived elapsed value.
func (t *Ticker) SetState(state *models.RoomTimerState) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	t.onTick(Elapsed(state, t.clock.Now()))
}

// Elapsed derives the current elapsed seconds from the last known state.
func (t *Ticker) Elapsed() int {
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()

	return Elapsed(state, t.clock.Now())
}

// Run ticks until the context is cancelled, typically when the room
// view unmounts.
func (t *Ticker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.onTick(t.Elapsed())
		}
	}
}
