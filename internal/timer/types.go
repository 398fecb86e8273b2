package timer

import (
	"time"

	"github.com/google/uuid"
	"github.com/studyhall/roomsync/internal/models"
)

// StartTimerRequest carries the precomputed values for a start
// transition: a fresh session row plus the new running state.
type StartTimerRequest struct {
	RoomID    uuid.UUID `json:"room_id"`
	UserID    uuid.UUID `json:"user_id"`
	SessionID uuid.UUID `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
}

// PauseTimerRequest carries the precomputed values for a pause transition.
type PauseTimerRequest struct {
	RoomID         uuid.UUID `json:"room_id"`
	UserID         uuid.UUID `json:"user_id"`
	PausedAt       time.Time `json:"paused_at"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
}

// ResumeTimerRequest carries the precomputed values for a resume transition.
type ResumeTimerRequest struct {
	RoomID             uuid.UUID `json:"room_id"`
	UserID             uuid.UUID `json:"user_id"`
	ResumedAt          time.Time `json:"resumed_at"`
	TotalPausedSeconds int       `json:"total_paused_seconds"`
	ElapsedSeconds     int       `json:"elapsed_seconds"`
}

// ResetTimerRequest carries the precomputed values for a reset
// transition, including the final duration written to the session row.
type ResetTimerRequest struct {
	RoomID          uuid.UUID `json:"room_id"`
	UserID          uuid.UUID `json:"user_id"`
	SessionID       uuid.UUID `json:"session_id"`
	ResetAt         time.Time `json:"reset_at"`
	DurationSeconds int       `json:"duration_seconds"`
}

// AppendEventRequest represents an append-only audit log insert.
type AppendEventRequest struct {
	RoomID                uuid.UUID          `json:"room_id"`
	UserID                uuid.UUID          `json:"user_id"`
	Action                models.TimerAction `json:"action"`
	ElapsedSecondsAtEvent int                `json:"elapsed_seconds_at_event"`
	StateSnapshot         interface{}        `json:"state_snapshot,omitempty"`
}
