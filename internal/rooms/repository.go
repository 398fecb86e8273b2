package rooms

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/studyhall/roomsync/internal/models"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	now := time.Now().UTC()
	row := r.db.QueryRowContext(ctx,
		"INSERT INTO rooms (id, name, type, creator_id, video_url, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $6) "+
			"RETURNING id, name, type, creator_id, video_url, created_at, updated_at",
		req.ID, req.Name, req.Type, req.CreatorID, req.VideoURL, now,
	)

	room, err := scanRoom(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return room, nil
}

func (r *Repository) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, type, creator_id, video_url, created_at, updated_at FROM rooms WHERE id = $1",
		id,
	)

	room, err := scanRoom(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

func (r *Repository) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return nil
}

func (r *Repository) AddMember(ctx context.Context, roomID, userID uuid.UUID, role models.RoomRole) (*models.RoomMember, error) {
	now := time.Now().UTC()
	row := r.db.QueryRowContext(ctx,
		"INSERT INTO room_members (room_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4) "+
			"ON CONFLICT (room_id, user_id) DO UPDATE SET role = EXCLUDED.role "+
			"RETURNING room_id, user_id, role, joined_at",
		roomID, userID, role, now,
	)

	var m models.RoomMember
	if err := row.Scan(&m.RoomID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
		return nil, fmt.Errorf("failed to add room member: %w", err)
	}
	return &m, nil
}

func (r *Repository) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM room_members WHERE room_id = $1 AND user_id = $2",
		roomID, userID,
	); err != nil {
		return fmt.Errorf("failed to remove room member: %w", err)
	}
	return nil
}

func (r *Repository) ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT room_id, user_id, role, joined_at FROM room_members WHERE room_id = $1 ORDER BY joined_at ASC",
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list room members: %w", err)
	}
	defer rows.Close()

	var members []models.RoomMember
	for rows.Next() {
		var m models.RoomMember
		if err := rows.Scan(&m.RoomID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func scanRoom(row *sql.Row) (*models.Room, error) {
	var room models.Room
	var videoURL sql.NullString
	if err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Type,
		&room.CreatorID,
		&videoURL,
		&room.CreatedAt,
		&room.UpdatedAt,
	); err != nil {
		return nil, err
	}
	room.VideoURL = videoURL.String
	return &room, nil
}
