package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/studyhall/roomsync/internal/events"
	"github.com/studyhall/roomsync/internal/models"
)

// MessageRepository defines what the app layer needs from the message repository
type MessageRepository interface {
	CreateMessage(ctx context.Context, req CreateMessageRequest) (*models.Message, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListMessages(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error)
}

// App persists chat messages and echoes the authoritative copy to
// every room subscriber, including the sender, over the push channel.
type App struct {
	repo      MessageRepository
	publisher events.Publisher
}

func NewApp(repo MessageRepository, publisher events.Publisher) *App {
	return &App{
		repo:      repo,
		publisher: publisher,
	}
}

// CreateMessage writes the message and publishes the MessageCreated
// echo. The sender reconciles its optimistic shadow against this echo.
func (a *App) CreateMessage(ctx context.Context, req CreateMessageRequest) (*models.Message, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("message content is required")
	}

	msg, err := a.repo.CreateMessage(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := a.publisher.PublishRoomEvent(ctx, msg.RoomID, events.EventTypeMessageCreated, events.MessageCreatedPayload{
		MessageID: msg.ID.String(),
		RoomID:    msg.RoomID.String(),
		UserID:    msg.UserID.String(),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}); err != nil {
		log.Error().
			Err(err).
			Str("message_id", msg.ID.String()).
			Msg("failed to publish message event")
	}

	return msg, nil
}

// ListMessages returns recent room history in ascending created_at order.
func (a *App) ListMessages(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error) {
	return a.repo.ListMessages(ctx, roomID, limit)
}
