package rooms

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handler exposes the room lifecycle over HTTP.
type Handler struct {
	app *App
}

func NewHandler(app *App) *Handler {
	return &Handler{app: app}
}

// HandleRooms handles POST /api/rooms
func (h *Handler) HandleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	room, err := h.app.CreateRoom(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("failed to create room")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// HandleRoomSubtree routes /api/rooms/{id}, /api/rooms/{id}/members,
// /api/rooms/{id}/join and /api/rooms/{id}/leave.
func (h *Handler) HandleRoomSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	idStr, action, _ := strings.Cut(rest, "/")

	roomID, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "Invalid room ID format", http.StatusBadRequest)
		return
	}

	switch action {
	case "":
		h.handleGetRoom(w, r, roomID)
	case "members":
		h.handleListMembers(w, r, roomID)
	case "join":
		h.handleJoin(w, r, roomID)
	case "leave":
		h.handleLeave(w, r, roomID)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleGetRoom(w http.ResponseWriter, r *http.Request, roomID uuid.UUID) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	room, err := h.app.GetRoom(r.Context(), roomID)
	if err != nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request, roomID uuid.UUID) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	members, err := h.app.ListMembers(r.Context(), roomID)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to list members")
		http.Error(w, "Failed to list members", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request, roomID uuid.UUID) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	member, err := h.app.JoinRoom(r.Context(), roomID, userID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to join room")
		http.Error(w, "Failed to join room", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request, roomID uuid.UUID) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.app.LeaveRoom(r.Context(), roomID, userID); err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to leave room")
		http.Error(w, "Failed to leave room", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return uuid.Nil, false
	}

	var body struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == uuid.Nil {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return body.UserID, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
