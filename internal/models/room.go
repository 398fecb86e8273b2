package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomType defines the kind of room.
type RoomType string

const (
	RoomTypeStudy RoomType = "STUDY"
	RoomTypeChat  RoomType = "CHAT"
	RoomTypeWatch RoomType = "WATCH"
)

// RoomRole defines a participant's role within a room.
type RoomRole string

const (
	RoomRoleCreator RoomRole = "CREATOR"
	RoomRoleViewer  RoomRole = "VIEWER"
)

// Room represents a shared room instance.
type Room struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      RoomType  `json:"type"`
	CreatorID uuid.UUID `json:"creator_id"`
	VideoURL  string    `json:"video_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoomMember represents a participant's membership in a room.
type RoomMember struct {
	RoomID   uuid.UUID `json:"room_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     RoomRole  `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
