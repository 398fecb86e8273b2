package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/studyhall/roomsync/internal/clock"
	"github.com/studyhall/roomsync/internal/models"
)

// StateProvider assembles the reconnect snapshot for a room: everything
// a client needs to rebuild its derived state after (re)subscribing.
type StateProvider interface {
	GetRoomState(ctx context.Context, roomID uuid.UUID) (*RoomStateResponse, error)
}

// RoomStateResponse represents the complete synchronizable state of a room
type RoomStateResponse struct {
	RoomID         string                 `json:"room_id"`
	Timer          *models.RoomTimerState `json:"timer"`
	ElapsedSeconds int                    `json:"elapsed_seconds"`
	Playback       *models.PlaybackState  `json:"playback"`
	Messages       []models.Message       `json:"messages"`
	ServerTime     time.Time              `json:"server_time"`
}

// TimerStateReader is the slice of the timer service the provider needs.
type TimerStateReader interface {
	GetState(ctx context.Context, roomID uuid.UUID) (*models.RoomTimerState, error)
}

// PlaybackStateReader is the slice of the playback service the provider needs.
type PlaybackStateReader interface {
	GetState(ctx context.Context, roomID uuid.UUID) (*models.PlaybackState, error)
}

// MessageReader is the slice of the chat service the provider needs.
type MessageReader interface {
	ListMessages(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error)
}

// RoomStateProvider implements StateProvider over the domain services.
type RoomStateProvider struct {
	timer    TimerStateReader
	playback PlaybackStateReader
	chat     MessageReader
	clock    clockwork.Clock

	historyLimit int
}

// NewRoomStateProvider creates a new room state provider
func NewRoomStateProvider(timer TimerStateReader, playback PlaybackStateReader, chat MessageReader, clk clockwork.Clock, historyLimit int) *RoomStateProvider {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &RoomStateProvider{
		timer:        timer,
		playback:     playback,
		chat:         chat,
		clock:        clk,
		historyLimit: historyLimit,
	}
}

// GetRoomState retrieves the complete synchronizable state of a room.
// Each section degrades independently to its safe default (idle timer,
// paused-at-zero playback, empty history) so a missing backing row
// never makes the snapshot fail as a whole.
func (p *RoomStateProvider) GetRoomState(ctx context.Context, roomID uuid.UUID) (*RoomStateResponse, error) {
	now := p.clock.Now()
	response := &RoomStateResponse{
		RoomID:     roomID.String(),
		ServerTime: now,
		Messages:   []models.Message{},
	}

	timerState, err := p.timer.GetState(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get timer state: %w", err)
	}
	response.Timer = timerState
	response.ElapsedSeconds = clock.Elapsed(timerState, now)

	playbackState, err := p.playback.GetState(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playback state: %w", err)
	}
	response.Playback = playbackState

	messages, err := p.chat.ListMessages(ctx, roomID, p.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if messages != nil {
		response.Messages = messages
	}

	return response, nil
}
