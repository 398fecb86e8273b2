package rooms

import (
	"github.com/google/uuid"
	"github.com/studyhall/roomsync/internal/models"
)

// CreateRoomRequest represents a request to create a new room
type CreateRoomRequest struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Type      models.RoomType `json:"type"`
	CreatorID uuid.UUID       `json:"creator_id"`
	VideoURL  string          `json:"video_url,omitempty"`
}
