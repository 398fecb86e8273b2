package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a persisted chat message with a backend-assigned ID.
type Message struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingStatus defines the lifecycle of an optimistic message shadow.
type PendingStatus string

const (
	PendingStatusSending PendingStatus = "SENDING"
	PendingStatusSent    PendingStatus = "SENT"
	PendingStatusFailed  PendingStatus = "FAILED"
)

// PendingMessage is the sender-local optimistic shadow of a message.
// It exists only until the authoritative echo with a real ID arrives
// or the send fails.
type PendingMessage struct {
	TempID    uuid.UUID     `json:"temp_id"`
	RoomID    uuid.UUID     `json:"room_id"`
	UserID    uuid.UUID     `json:"user_id"`
	Content   string        `json:"content"`
	Status    PendingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
