package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhall/roomsync/internal/events"
	"github.com/studyhall/roomsync/internal/models"
)

type fakeTimerReader struct {
	state *models.RoomTimerState
}

func (f *fakeTimerReader) GetState(_ context.Context, roomID uuid.UUID) (*models.RoomTimerState, error) {
	if f.state != nil {
		return f.state, nil
	}
	return &models.RoomTimerState{RoomID: roomID}, nil
}

type fakePlaybackReader struct {
	state *models.PlaybackState
}

func (f *fakePlaybackReader) GetState(_ context.Context, roomID uuid.UUID) (*models.PlaybackState, error) {
	if f.state != nil {
		return f.state, nil
	}
	return &models.PlaybackState{RoomID: roomID}, nil
}

type fakeMessageReader struct {
	messages []models.Message
	gotLimit int
}

func (f *fakeMessageReader) ListMessages(_ context.Context, _ uuid.UUID, limit int) ([]models.Message, error) {
	f.gotLimit = limit
	return f.messages, nil
}

func TestGetRoomState(t *testing.T) {
	ctx := context.Background()
	roomID := uuid.New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("snapshot carries timer, playback, history and server time", func(t *testing.T) {
		start := base.Add(-90 * time.Second)
		sessionID := uuid.New()
		owner := uuid.New()
		timerReader := &fakeTimerReader{state: &models.RoomTimerState{
			RoomID:    roomID,
			IsRunning: true,
			StartTime: &start,
			SessionID: &sessionID,
			StartedBy: &owner,
		}}
		playbackReader := &fakePlaybackReader{state: &models.PlaybackState{
			RoomID:          roomID,
			IsPlaying:       true,
			PositionSeconds: 42,
		}}
		messageReader := &fakeMessageReader{messages: []models.Message{
			{ID: uuid.New(), RoomID: roomID, Content: "hi"},
		}}

		clk := clockwork.NewFakeClockAt(base)
		provider := NewRoomStateProvider(timerReader, playbackReader, messageReader, clk, 50)

		state, err := provider.GetRoomState(ctx, roomID)
		require.NoError(t, err)

		assert.Equal(t, roomID.String(), state.RoomID)
		assert.Equal(t, 90, state.ElapsedSeconds, "elapsed must be derived at snapshot time")
		assert.Equal(t, base, state.ServerTime)
		assert.True(t, state.Playback.IsPlaying)
		assert.Len(t, state.Messages, 1)
		assert.Equal(t, 50, messageReader.gotLimit)
	})

	t.Run("untouched room snapshots to safe defaults", func(t *testing.T) {
		provider := NewRoomStateProvider(&fakeTimerReader{}, &fakePlaybackReader{}, &fakeMessageReader{}, clockwork.NewFakeClockAt(base), 0)

		state, err := provider.GetRoomState(ctx, roomID)
		require.NoError(t, err)

		assert.Equal(t, 0, state.ElapsedSeconds)
		assert.True(t, state.Timer.Idle())
		assert.False(t, state.Playback.IsPlaying)
		assert.NotNil(t, state.Messages)
		assert.Empty(t, state.Messages)
	})
}

func TestParseEventPayload(t *testing.T) {
	t.Run("playback change round-trips", func(t *testing.T) {
		data, err := json.Marshal(events.PlaybackChangedPayload{
			RoomID:          uuid.New().String(),
			IsPlaying:       true,
			PositionSeconds: 12.5,
		})
		require.NoError(t, err)

		payload, err := ParseEventPayload(&RoomEvent{Type: events.EventTypePlaybackChanged, Data: data})
		require.NoError(t, err)

		parsed, ok := payload.(events.PlaybackChangedPayload)
		require.True(t, ok)
		assert.True(t, parsed.IsPlaying)
		assert.Equal(t, 12.5, parsed.PositionSeconds)
	})

	t.Run("presence sync parses member snapshot", func(t *testing.T) {
		data, err := json.Marshal(PresenceSyncPayload{
			RoomID: uuid.New().String(),
			Members: []PresenceSummary{
				{UserID: uuid.New().String(), Typing: true},
				{UserID: uuid.New().String()},
			},
		})
		require.NoError(t, err)

		payload, err := ParseEventPayload(&RoomEvent{Type: events.EventTypePresenceSync, Data: data})
		require.NoError(t, err)

		parsed, ok := payload.(PresenceSyncPayload)
		require.True(t, ok)
		assert.Len(t, parsed.Members, 2)
	})

	t.Run("unknown types return nil", func(t *testing.T) {
		payload, err := ParseEventPayload(&RoomEvent{Type: "mystery", Data: []byte(`{}`)})
		assert.NoError(t, err)
		assert.Nil(t, payload)
	})
}
