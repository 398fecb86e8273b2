package clock

import (
	"time"

	"github.com/studyhall/roomsync/internal/models"
)

// Elapsed derives the study timer's elapsed seconds from the
// authoritative RoomTimerState and a caller-supplied now. It is a pure
// function of shared state: any two observers computing it at the same
// now get the same answer, regardless of local clock drift or how many
// times the room was paused.
func Elapsed(state *models.RoomTimerState, now time.Time) int {
	if state == nil || state.StartTime == nil {
		return 0
	}

	end := now
	if !state.IsRunning && state.PauseTime != nil {
		end = *state.PauseTime
	}

	elapsed := int(end.Sub(*state.StartTime).Seconds()) - state.TotalPausedSeconds
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// PausedSince returns the seconds the timer has accumulated in the
// current pause, zero when running or idle.
func PausedSince(state *models.RoomTimerState, now time.Time) int {
	if state == nil || state.IsRunning || state.PauseTime == nil {
		return 0
	}
	paused := int(now.Sub(*state.PauseTime).Seconds())
	if paused < 0 {
		return 0
	}
	return paused
}
