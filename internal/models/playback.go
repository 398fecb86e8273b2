package models

import (
	"time"

	"github.com/google/uuid"
)

// PlaybackState is the shared video state for a watch room. It is
// owned exclusively by the room's creator; every update overwrites the
// previous value (last-writer-wins from a single legitimate writer).
type PlaybackState struct {
	RoomID          uuid.UUID `json:"room_id"`
	IsPlaying       bool      `json:"is_playing"`
	PositionSeconds float64   `json:"position_seconds"`
	UpdatedAt       time.Time `json:"updated_at"`
}
