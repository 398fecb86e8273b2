package gateway

import (
	"encoding/json"
	"time"

	"github.com/studyhall/roomsync/internal/events"
)

// RoomEvent represents the base structure for all room events pushed
// to WebSocket clients
type RoomEvent struct {
	ID        string           `json:"id"`        // Event UUID
	RoomID    string           `json:"room_id"`   // Room UUID
	Type      events.EventType `json:"type"`      // Event type
	Timestamp time.Time        `json:"timestamp"` // Event creation time
	Data      json.RawMessage  `json:"data"`      // Event-specific payload
}

// PresenceSyncPayload carries a full presence snapshot to clients.
type PresenceSyncPayload struct {
	RoomID  string            `json:"room_id"`
	Members []PresenceSummary `json:"members"`
}

// PresenceSummary is one member's ephemeral state in a sync snapshot.
type PresenceSummary struct {
	UserID     string    `json:"user_id"`
	Typing     bool      `json:"typing"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// TimerTickPayload contains periodic elapsed updates (optional)
type TimerTickPayload struct {
	RoomID         string    `json:"room_id"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	TickedAt       time.Time `json:"ticked_at"`
}

// ParseEventPayload parses event data into the appropriate payload struct
func ParseEventPayload(event *RoomEvent) (interface{}, error) {
	switch event.Type {
	case events.EventTypeTimerStarted:
		var payload events.TimerStartedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.EventTypeTimerPaused:
		var payload events.TimerPausedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.EventTypeTimerResumed:
		var payload events.TimerResumedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.EventTypeTimerReset:
		var payload events.TimerResetPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.EventTypePlaybackChanged:
		var payload events.PlaybackChangedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.EventTypeMessageCreated:
		var payload events.MessageCreatedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.EventTypePresenceSync:
		var payload PresenceSyncPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.EventTypeTimerTick:
		var payload TimerTickPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, nil // Unknown event type
	}
}
