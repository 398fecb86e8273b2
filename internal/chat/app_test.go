package chat

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhall/roomsync/internal/events"
	"github.com/studyhall/roomsync/internal/models"
)

type fakeMessageRepo struct {
	messages []models.Message
}

func (f *fakeMessageRepo) CreateMessage(_ context.Context, req CreateMessageRequest) (*models.Message, error) {
	msg := models.Message{
		ID:        uuid.New(),
		RoomID:    req.RoomID,
		UserID:    req.UserID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

func (f *fakeMessageRepo) GetMessage(_ context.Context, id uuid.UUID) (*models.Message, error) {
	for _, m := range f.messages {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeMessageRepo) ListMessages(_ context.Context, roomID uuid.UUID, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func TestCreateMessage(t *testing.T) {
	ctx := context.Background()
	roomID := uuid.New()
	userID := uuid.New()

	t.Run("persisted message is echoed to the room", func(t *testing.T) {
		publisher := events.NewRecordingPublisher()
		app := NewApp(&fakeMessageRepo{}, publisher)

		msg, err := app.CreateMessage(ctx, CreateMessageRequest{
			RoomID:  roomID,
			UserID:  userID,
			Content: "good luck everyone",
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, msg.ID)

		published := publisher.Events()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventTypeMessageCreated, published[0].EventType)
		assert.Equal(t, roomID.String(), published[0].RoomID)
	})

	t.Run("empty content is rejected", func(t *testing.T) {
		publisher := events.NewRecordingPublisher()
		app := NewApp(&fakeMessageRepo{}, publisher)

		_, err := app.CreateMessage(ctx, CreateMessageRequest{RoomID: roomID, UserID: userID})
		assert.Error(t, err)
		assert.Empty(t, publisher.Events())
	})
}
