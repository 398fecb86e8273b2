package models

import (
	"time"

	"github.com/google/uuid"
)

// TimerAction defines a timer state transition.
type TimerAction string

const (
	TimerActionStart  TimerAction = "START"
	TimerActionPause  TimerAction = "PAUSE"
	TimerActionResume TimerAction = "RESUME"
	TimerActionReset  TimerAction = "RESET"
)

// RoomTimerState is the authoritative study-timer row for a room.
// Invariants: IsRunning and PauseTime are mutually exclusive,
// TotalPausedSeconds only increases, SessionID is nil iff the timer
// has never been started or has been reset.
type RoomTimerState struct {
	RoomID             uuid.UUID  `json:"room_id"`
	IsRunning          bool       `json:"is_running"`
	StartTime          *time.Time `json:"start_time,omitempty"`
	PauseTime          *time.Time `json:"pause_time,omitempty"`
	TotalPausedSeconds int        `json:"total_paused_seconds"`
	SessionID          *uuid.UUID `json:"session_id,omitempty"`
	StartedBy          *uuid.UUID `json:"started_by,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Idle reports whether the timer has no active session.
func (s *RoomTimerState) Idle() bool {
	return s.SessionID == nil
}

// TimerEvent is an append-only audit log entry. Events are never
// mutated or deleted and never used to reconstruct state.
type TimerEvent struct {
	ID                    uuid.UUID   `json:"id"`
	RoomID                uuid.UUID   `json:"room_id"`
	UserID                uuid.UUID   `json:"user_id"`
	Action                TimerAction `json:"action"`
	ElapsedSecondsAtEvent int         `json:"elapsed_seconds_at_event"`
	CreatedAt             time.Time   `json:"created_at"`
}

// StudySession records one start-to-reset timer run for a room.
type StudySession struct {
	ID              uuid.UUID  `json:"id"`
	RoomID          uuid.UUID  `json:"room_id"`
	StartedBy       uuid.UUID  `json:"started_by"`
	DurationSeconds int        `json:"duration_seconds"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}
