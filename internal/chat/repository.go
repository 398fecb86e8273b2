package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studyhall/roomsync/internal/models"
)

// CreateMessageRequest represents a request to persist a chat message
type CreateMessageRequest struct {
	RoomID  uuid.UUID `json:"room_id"`
	UserID  uuid.UUID `json:"user_id"`
	Content string    `json:"content"`
}

// Repository persists chat messages. Message order is the backend
// commit order: created_at is assigned here, never by clients.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateMessage(ctx context.Context, req CreateMessageRequest) (*models.Message, error) {
	row := r.pool.QueryRow(ctx,
		"INSERT INTO messages (id, room_id, user_id, content, created_at) VALUES ($1, $2, $3, $4, $5) "+
			"RETURNING id, room_id, user_id, content, created_at",
		uuid.New(), req.RoomID, req.UserID, req.Content, time.Now().UTC(),
	)

	var m models.Message
	if err := row.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Content, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &m, nil
}

func (r *Repository) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT id, room_id, user_id, content, created_at FROM messages WHERE id = $1",
		id,
	)

	var m models.Message
	if err := row.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Content, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &m, nil
}

// ListMessages returns up to limit messages for a room in ascending
// created_at order.
func (r *Repository) ListMessages(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, room_id, user_id, content, created_at FROM ("+
			"SELECT id, room_id, user_id, content, created_at FROM messages WHERE room_id = $1 "+
			"ORDER BY created_at DESC LIMIT $2"+
			") recent ORDER BY created_at ASC",
		roomID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
