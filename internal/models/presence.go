package models

import (
	"time"

	"github.com/google/uuid"
)

// PresenceRecord is an ephemeral per-room membership signal. It lives
// for the lifetime of the process and is never persisted; a
// disconnected member simply drops out of the next sync snapshot.
type PresenceRecord struct {
	UserID     uuid.UUID `json:"user_id"`
	Typing     bool      `json:"typing"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
