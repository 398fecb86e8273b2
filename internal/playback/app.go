package playback

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/studyhall/roomsync/internal/events"
	"github.com/studyhall/roomsync/internal/models"
)

// PlaybackRepository defines what the app layer needs from the playback repository
type PlaybackRepository interface {
	GetState(ctx context.Context, roomID uuid.UUID) (*models.PlaybackState, error)
	SetState(ctx context.Context, state *models.PlaybackState) error
}

// CreatorChecker reports whether a user holds a room's creator role.
type CreatorChecker interface {
	IsCreator(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
}

// App arbitrates the single-writer protocol for shared video state.
// Exactly one creator per room may write; every accepted write is the
// new global truth and is broadcast to all subscribers.
type App struct {
	repo      PlaybackRepository
	roles     CreatorChecker
	publisher events.Publisher
	clock     clockwork.Clock
}

func NewApp(repo PlaybackRepository, roles CreatorChecker, publisher events.Publisher, clk clockwork.Clock) *App {
	return &App{
		repo:      repo,
		roles:     roles,
		publisher: publisher,
		clock:     clk,
	}
}

// GetState returns the current shared playback state, paused-at-zero
// when none has been written yet.
func (a *App) GetState(ctx context.Context, roomID uuid.UUID) (*models.PlaybackState, error) {
	return a.repo.GetState(ctx, roomID)
}

// SetState applies a creator-originated state change. Writes from any
// other participant are rejected; the client treats the rejection as a
// silent no-op and is never forwarded to other viewers.
func (a *App) SetState(ctx context.Context, roomID, userID uuid.UUID, isPlaying bool, positionSeconds float64) (*models.PlaybackState, error) {
	isCreator, err := a.roles.IsCreator(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !isCreator {
		return nil, ErrNotRoomCreator
	}

	if positionSeconds < 0 {
		positionSeconds = 0
	}

	state := &models.PlaybackState{
		RoomID:          roomID,
		IsPlaying:       isPlaying,
		PositionSeconds: positionSeconds,
		UpdatedAt:       a.clock.Now().UTC(),
	}
	if err := a.repo.SetState(ctx, state); err != nil {
		return nil, err
	}

	if err := a.publisher.PublishRoomEvent(ctx, roomID, events.EventTypePlaybackChanged, events.PlaybackChangedPayload{
		RoomID:          roomID.String(),
		IsPlaying:       state.IsPlaying,
		PositionSeconds: state.PositionSeconds,
		UpdatedAt:       state.UpdatedAt,
	}); err != nil {
		log.Error().
			Err(err).
			Str("room_id", roomID.String()).
			Msg("failed to publish playback event")
	}

	log.Debug().
		Str("room_id", roomID.String()).
		Bool("is_playing", state.IsPlaying).
		Float64("position_seconds", state.PositionSeconds).
		Msg("playback state updated")

	return state, nil
}
