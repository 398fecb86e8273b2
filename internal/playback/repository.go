package playback

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/studyhall/roomsync/internal/models"
)

// Repository persists the single playback row per watch room. No
// history is kept: each write overwrites the previous value.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetState returns the playback row for a room. A missing row degrades
// to the safe default: paused at zero.
func (r *Repository) GetState(ctx context.Context, roomID uuid.UUID) (*models.PlaybackState, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT room_id, is_playing, position_seconds, updated_at FROM playback_state WHERE room_id = $1",
		roomID,
	)

	var state models.PlaybackState
	err := row.Scan(&state.RoomID, &state.IsPlaying, &state.PositionSeconds, &state.UpdatedAt)
	if err == sql.ErrNoRows {
		return &models.PlaybackState{RoomID: roomID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playback state: %w", err)
	}
	return &state, nil
}

// SetState overwrites the playback row, last-writer-wins.
func (r *Repository) SetState(ctx context.Context, state *models.PlaybackState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO playback_state (room_id, is_playing, position_seconds, updated_at) VALUES ($1, $2, $3, $4) "+
			"ON CONFLICT (room_id) DO UPDATE SET is_playing = EXCLUDED.is_playing, "+
			"position_seconds = EXCLUDED.position_seconds, updated_at = EXCLUDED.updated_at",
		state.RoomID, state.IsPlaying, state.PositionSeconds, state.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to set playback state: %w", err)
	}
	return nil
}
