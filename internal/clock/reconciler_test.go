package clock

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/studyhall/roomsync/internal/models"
)

func timerState(start time.Time, running bool, pause *time.Time, pausedSeconds int) *models.RoomTimerState {
	return &models.RoomTimerState{
		RoomID:             uuid.New(),
		IsRunning:          running,
		StartTime:          &start,
		PauseTime:          pause,
		TotalPausedSeconds: pausedSeconds,
	}
}

func TestElapsed(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nil state is zero", func(t *testing.T) {
		assert.Equal(t, 0, Elapsed(nil, base))
	})

	t.Run("idle state is zero", func(t *testing.T) {
		state := &models.RoomTimerState{RoomID: uuid.New()}
		assert.Equal(t, 0, Elapsed(state, base))
	})

	t.Run("running timer counts wall time since start", func(t *testing.T) {
		state := timerState(base, true, nil, 0)
		assert.Equal(t, 90, Elapsed(state, base.Add(90*time.Second)))
	})

	t.Run("paused timer freezes at pause time", func(t *testing.T) {
		pause := base.Add(40 * time.Second)
		state := timerState(base, false, &pause, 0)

		// A later now must not advance the frozen value
		assert.Equal(t, 40, Elapsed(state, base.Add(10*time.Minute)))
	})

	t.Run("accumulated pauses are subtracted", func(t *testing.T) {
		// Ran 60s, paused 30s, resumed, ran 20s more
		state := timerState(base, true, nil, 30)
		assert.Equal(t, 80, Elapsed(state, base.Add(110*time.Second)))
	})

	t.Run("clock skew cannot go negative", func(t *testing.T) {
		state := timerState(base, true, nil, 0)
		assert.Equal(t, 0, Elapsed(state, base.Add(-5*time.Second)))
	})

	t.Run("same now yields same elapsed for every observer", func(t *testing.T) {
		pause := base.Add(75 * time.Second)
		state := timerState(base, false, &pause, 15)

		now := base.Add(2 * time.Hour)
		first := Elapsed(state, now)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Elapsed(state, now))
		}
		assert.Equal(t, 60, first)
	})
}

func TestPausedSince(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("running timer reports zero", func(t *testing.T) {
		state := timerState(base, true, nil, 0)
		assert.Equal(t, 0, PausedSince(state, base.Add(10*time.Second)))
	})

	t.Run("paused timer reports time in current pause", func(t *testing.T) {
		pause := base.Add(30 * time.Second)
		state := timerState(base, false, &pause, 0)
		assert.Equal(t, 45, PausedSince(state, pause.Add(45*time.Second)))
	})
}

func TestTicker(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("set state reports immediately", func(t *testing.T) {
		clk := clockwork.NewFakeClockAt(base.Add(30 * time.Second))

		var got []int
		ticker := NewTicker(clk, time.Second, func(elapsed int) {
			got = append(got, elapsed)
		})

		ticker.SetState(timerState(base, true, nil, 0))
		assert.Equal(t, []int{30}, got)
	})

	t.Run("elapsed re-derives from the fake clock", func(t *testing.T) {
		clk := clockwork.NewFakeClockAt(base)

		ticker := NewTicker(clk, time.Second, func(int) {})
		ticker.SetState(timerState(base, true, nil, 0))

		clk.Advance(12 * time.Second)
		assert.Equal(t, 12, ticker.Elapsed())
	})

	t.Run("state replacement resets derivation without drift", func(t *testing.T) {
		clk := clockwork.NewFakeClockAt(base.Add(100 * time.Second))

		var last int
		ticker := NewTicker(clk, time.Second, func(elapsed int) { last = elapsed })

		ticker.SetState(timerState(base, true, nil, 0))
		assert.Equal(t, 100, last)

		// Pause notification arrives: frozen value replaces the count
		pause := base.Add(60 * time.Second)
		ticker.SetState(timerState(base, false, &pause, 0))
		assert.Equal(t, 60, last)
	})
}
