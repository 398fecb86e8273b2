package events

import (
	"time"
)

// Event payload types shared between the domain services and the
// gateway package.

// EventType identifies a room event on the bus.
type EventType string

const (
	EventTypeTimerStarted    EventType = "TimerStarted"
	EventTypeTimerPaused     EventType = "TimerPaused"
	EventTypeTimerResumed    EventType = "TimerResumed"
	EventTypeTimerReset      EventType = "TimerReset"
	EventTypePlaybackChanged EventType = "PlaybackChanged"
	EventTypeMessageCreated  EventType = "MessageCreated"
	EventTypePresenceSync    EventType = "PresenceSync"
	EventTypeTimerTick       EventType = "TimerTick"
)

// TimerStartedPayload is the payload for a TimerStarted event
type TimerStartedPayload struct {
	RoomID    string    `json:"room_id"`
	SessionID string    `json:"session_id"`
	StartedBy string    `json:"started_by"`
	StartedAt time.Time `json:"started_at"`
}

// TimerPausedPayload is the payload for a TimerPaused event
type TimerPausedPayload struct {
	RoomID         string    `json:"room_id"`
	PausedBy       string    `json:"paused_by"`
	PausedAt       time.Time `json:"paused_at"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
}

// TimerResumedPayload is the payload for a TimerResumed event
type TimerResumedPayload struct {
	RoomID         string    `json:"room_id"`
	ResumedBy      string    `json:"resumed_by"`
	ResumedAt      time.Time `json:"resumed_at"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
}

// TimerResetPayload is the payload for a TimerReset event
type TimerResetPayload struct {
	RoomID          string    `json:"room_id"`
	ResetBy         string    `json:"reset_by"`
	ResetAt         time.Time `json:"reset_at"`
	SessionID       string    `json:"session_id"`
	DurationSeconds int       `json:"duration_seconds"`
}

// PlaybackChangedPayload is the payload for a PlaybackChanged event
type PlaybackChangedPayload struct {
	RoomID          string    `json:"room_id"`
	IsPlaying       bool      `json:"is_playing"`
	PositionSeconds float64   `json:"position_seconds"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MessageCreatedPayload is the payload for a MessageCreated event
type MessageCreatedPayload struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
