package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/studyhall/roomsync/internal/chat"
	"github.com/studyhall/roomsync/internal/models"
	"github.com/studyhall/roomsync/internal/playback"
	"github.com/studyhall/roomsync/internal/presence"
	"github.com/studyhall/roomsync/internal/timer"
)

// CommandType identifies an inbound client command.
type CommandType string

const (
	CommandTimerStart  CommandType = "timer_start"
	CommandTimerPause  CommandType = "timer_pause"
	CommandTimerResume CommandType = "timer_resume"
	CommandTimerReset  CommandType = "timer_reset"
	CommandPlaybackSet CommandType = "playback_set"
	CommandMessageSend CommandType = "message_send"
	CommandTyping      CommandType = "typing"
)

// ClientCommand is the wire format for commands sent by clients over
// the WebSocket connection.
type ClientCommand struct {
	Type CommandType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// PlaybackSetCommand is the payload of a playback_set command.
type PlaybackSetCommand struct {
	IsPlaying       bool    `json:"is_playing"`
	PositionSeconds float64 `json:"position_seconds"`
}

// MessageSendCommand is the payload of a message_send command.
type MessageSendCommand struct {
	Content string `json:"content"`
}

// TypingCommand is the payload of a typing command.
type TypingCommand struct {
	Typing bool `json:"typing"`
}

// CommandHandler routes inbound client commands to the domain services.
type CommandHandler interface {
	HandleCommand(ctx context.Context, roomID, userID uuid.UUID, cmd ClientCommand) error
}

// TimerApp is the slice of the timer service the router needs.
type TimerApp interface {
	Start(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomTimerState, error)
	Pause(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomTimerState, error)
	Resume(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomTimerState, error)
	Reset(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomTimerState, error)
}

// PlaybackApp is the slice of the playback service the router needs.
type PlaybackApp interface {
	SetState(ctx context.Context, roomID, userID uuid.UUID, isPlaying bool, positionSeconds float64) (*models.PlaybackState, error)
}

// ChatApp is the slice of the chat service the router needs.
type ChatApp interface {
	CreateMessage(ctx context.Context, req chat.CreateMessageRequest) (*models.Message, error)
}

// Router dispatches client commands to the timer, playback, chat and
// presence services. Authority violations are swallowed after a log
// line: the owner rule is advisory at the UI and enforced here, so a
// rejected command must look like a no-op to the sender.
type Router struct {
	timer    TimerApp
	playback PlaybackApp
	chat     ChatApp
	presence presence.Channel
}

func NewRouter(timerApp TimerApp, playbackApp PlaybackApp, chatApp ChatApp, presenceChannel presence.Channel) *Router {
	return &Router{
		timer:    timerApp,
		playback: playbackApp,
		chat:     chatApp,
		presence: presenceChannel,
	}
}

// HandleCommand routes one command.
func (r *Router) HandleCommand(ctx context.Context, roomID, userID uuid.UUID, cmd ClientCommand) error {
	var err error
	switch cmd.Type {
	case CommandTimerStart:
		_, err = r.timer.Start(ctx, roomID, userID)
	case CommandTimerPause:
		_, err = r.timer.Pause(ctx, roomID, userID)
	case CommandTimerResume:
		_, err = r.timer.Resume(ctx, roomID, userID)
	case CommandTimerReset:
		_, err = r.timer.Reset(ctx, roomID, userID)
	case CommandPlaybackSet:
		err = r.handlePlaybackSet(ctx, roomID, userID, cmd.Data)
	case CommandMessageSend:
		err = r.handleMessageSend(ctx, roomID, userID, cmd.Data)
	case CommandTyping:
		err = r.handleTyping(ctx, roomID, userID, cmd.Data)
	default:
		return fmt.Errorf("unknown command type: %s", cmd.Type)
	}

	if isAuthorityViolation(err) {
		// Silent no-op for the sender; the state they tried to write
		// was never theirs to write.
		log.Debug().
			Str("room_id", roomID.String()).
			Str("user_id", userID.String()).
			Str("command", string(cmd.Type)).
			Msg("authority violation ignored")
		return nil
	}
	return err
}

func (r *Router) handlePlaybackSet(ctx context.Context, roomID, userID uuid.UUID, data json.RawMessage) error {
	var payload PlaybackSetCommand
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to parse playback_set command: %w", err)
	}
	_, err := r.playback.SetState(ctx, roomID, userID, payload.IsPlaying, payload.PositionSeconds)
	return err
}

func (r *Router) handleMessageSend(ctx context.Context, roomID, userID uuid.UUID, data json.RawMessage) error {
	var payload MessageSendCommand
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to parse message_send command: %w", err)
	}
	_, err := r.chat.CreateMessage(ctx, chat.CreateMessageRequest{
		RoomID:  roomID,
		UserID:  userID,
		Content: payload.Content,
	})
	return err
}

func (r *Router) handleTyping(ctx context.Context, roomID, userID uuid.UUID, data json.RawMessage) error {
	var payload TypingCommand
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to parse typing command: %w", err)
	}
	return r.presence.Track(ctx, roomID, models.PresenceRecord{
		UserID:     userID,
		Typing:     payload.Typing,
		LastSeenAt: time.Now().UTC(),
	})
}

func isAuthorityViolation(err error) bool {
	return errors.Is(err, timer.ErrNotTimerOwner) || errors.Is(err, playback.ErrNotRoomCreator)
}
