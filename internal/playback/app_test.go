package playback

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhall/roomsync/internal/events"
	"github.com/studyhall/roomsync/internal/models"
)

type fakePlaybackRepo struct {
	states map[uuid.UUID]*models.PlaybackState
}

func (f *fakePlaybackRepo) GetState(_ context.Context, roomID uuid.UUID) (*models.PlaybackState, error) {
	if state, ok := f.states[roomID]; ok {
		copied := *state
		return &copied, nil
	}
	return &models.PlaybackState{RoomID: roomID}, nil
}

func (f *fakePlaybackRepo) SetState(_ context.Context, state *models.PlaybackState) error {
	copied := *state
	f.states[state.RoomID] = &copied
	return nil
}

type fakeCreatorChecker struct {
	creator uuid.UUID
}

func (f *fakeCreatorChecker) IsCreator(_ context.Context, _, userID uuid.UUID) (bool, error) {
	return userID == f.creator, nil
}

func TestAppSetState(t *testing.T) {
	ctx := context.Background()
	roomID := uuid.New()
	creator := uuid.New()
	viewer := uuid.New()

	newApp := func() (*App, *events.RecordingPublisher) {
		publisher := events.NewRecordingPublisher()
		repo := &fakePlaybackRepo{states: make(map[uuid.UUID]*models.PlaybackState)}
		clk := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		return NewApp(repo, &fakeCreatorChecker{creator: creator}, publisher, clk), publisher
	}

	t.Run("creator write persists and broadcasts", func(t *testing.T) {
		app, publisher := newApp()

		state, err := app.SetState(ctx, roomID, creator, true, 42.0)
		require.NoError(t, err)
		assert.True(t, state.IsPlaying)
		assert.Equal(t, 42.0, state.PositionSeconds)

		published := publisher.Events()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventTypePlaybackChanged, published[0].EventType)

		stored, err := app.GetState(ctx, roomID)
		require.NoError(t, err)
		assert.Equal(t, state.PositionSeconds, stored.PositionSeconds)
	})

	t.Run("viewer write is rejected and not broadcast", func(t *testing.T) {
		app, publisher := newApp()

		_, err := app.SetState(ctx, roomID, viewer, true, 10.0)
		assert.ErrorIs(t, err, ErrNotRoomCreator)
		assert.Empty(t, publisher.Events())

		stored, err := app.GetState(ctx, roomID)
		require.NoError(t, err)
		assert.False(t, stored.IsPlaying)
		assert.Equal(t, 0.0, stored.PositionSeconds)
	})

	t.Run("negative position clamps to zero", func(t *testing.T) {
		app, _ := newApp()

		state, err := app.SetState(ctx, roomID, creator, false, -3.5)
		require.NoError(t, err)
		assert.Equal(t, 0.0, state.PositionSeconds)
	})

	t.Run("unwritten room defaults to paused at zero", func(t *testing.T) {
		app, _ := newApp()

		state, err := app.GetState(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, state.IsPlaying)
		assert.Equal(t, 0.0, state.PositionSeconds)
	})
}
