package rooms

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/studyhall/roomsync/internal/models"
)

// ErrRoomNotFound is returned when a room does not exist
var ErrRoomNotFound = errors.New("room not found")

// RoomRepository defines what the app layer needs from the room repository
type RoomRepository interface {
	CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	DeleteRoom(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, roomID, userID uuid.UUID, role models.RoomRole) (*models.RoomMember, error)
	RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error
	ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error)
}

// App handles room membership and the creator role assignment that the
// playback single-writer rule is arbitrated against.
type App struct {
	repo RoomRepository
}

func NewApp(repo RoomRepository) *App {
	return &App{repo: repo}
}

// CreateRoom creates a room and enrolls the creator as its only
// CREATOR member. The creator role is immutable for the room's lifetime.
func (a *App) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("room name is required")
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	room, err := a.repo.CreateRoom(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, err := a.repo.AddMember(ctx, room.ID, room.CreatorID, models.RoomRoleCreator); err != nil {
		return nil, fmt.Errorf("failed to enroll creator: %w", err)
	}

	log.Info().
		Str("room_id", room.ID.String()).
		Str("type", string(room.Type)).
		Str("creator_id", room.CreatorID.String()).
		Msg("room created")

	return room, nil
}

// GetRoom retrieves a room by ID.
func (a *App) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return a.repo.GetRoom(ctx, id)
}

// JoinRoom enrolls a participant as a viewer. Joining as the creator
// keeps the creator role.
func (a *App) JoinRoom(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomMember, error) {
	room, err := a.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, ErrRoomNotFound
	}

	role := models.RoomRoleViewer
	if room.CreatorID == userID {
		role = models.RoomRoleCreator
	}
	return a.repo.AddMember(ctx, roomID, userID, role)
}

// LeaveRoom removes a participant's membership.
func (a *App) LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) error {
	return a.repo.RemoveMember(ctx, roomID, userID)
}

// ListMembers returns the room's membership roster.
func (a *App) ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error) {
	return a.repo.ListMembers(ctx, roomID)
}

// IsCreator reports whether the user holds the room's creator role.
func (a *App) IsCreator(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	room, err := a.repo.GetRoom(ctx, roomID)
	if err != nil {
		return false, ErrRoomNotFound
	}
	return room.CreatorID == userID, nil
}
