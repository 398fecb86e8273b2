package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/studyhall/roomsync/internal/events"
	"github.com/studyhall/roomsync/internal/models"
	"github.com/studyhall/roomsync/internal/presence"
)

// Service is the room gateway: it owns the WebSocket connections,
// consumes room events from the bus, fans presence snapshots out and
// serves reconnect snapshots.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	eventConsumer     *EventConsumer
	stateHandler      *StateHandler
	stateProvider     StateProvider
	presenceChannel   presence.Channel

	// Rooms with an active presence subscription
	presenceRooms sync.Map
	runCtx        context.Context
}

// Config holds configuration for the room gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
}

// DefaultConfig returns default configuration for the room gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
	}
}

// NewService creates a new room gateway service
func NewService(config Config, stateProvider StateProvider, commands CommandHandler, presenceChannel presence.Channel) (*Service, error) {
	connectionManager := NewConnectionManager(config.ConnectionConfig, commands)
	wsHandler := NewWebSocketHandler(connectionManager)

	eventConsumer, err := NewEventConsumer(connectionManager, config.JetStreamConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event consumer: %w", err)
	}

	stateHandler := NewStateHandler(stateProvider)

	return &Service{
		connectionManager: connectionManager,
		wsHandler:         wsHandler,
		eventConsumer:     eventConsumer,
		stateHandler:      stateHandler,
		stateProvider:     stateProvider,
		presenceChannel:   presenceChannel,
	}, nil
}

// Start begins the gateway service
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting room gateway service")
	s.runCtx = ctx

	go s.connectionManager.Start(ctx)

	go func() {
		if err := s.eventConsumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("event consumer failed")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("room gateway service shutting down")
	return s.Stop()
}

// Stop gracefully shuts down the gateway service
func (s *Service) Stop() error {
	if err := s.eventConsumer.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop event consumer")
	}

	log.Info().Msg("room gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/room", s.HandleRoomConnection)
	mux.HandleFunc("/ws/stats", s.wsHandler.HandleConnectionStats)
	log.Info().Msg("room gateway routes registered")
}

// StateHandler exposes the reconnect snapshot handler so callers can
// mount it next to their own room routes.
func (s *Service) StateHandler() *StateHandler {
	return s.stateHandler
}

// HandleRoomConnection upgrades a client connection, making sure the
// room's presence snapshots are being fanned out first.
func (s *Service) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	if roomID, err := uuid.Parse(r.URL.Query().Get("room_id")); err == nil {
		s.ensurePresenceFanout(roomID)
	}
	s.wsHandler.HandleRoomConnection(w, r)
}

// ensurePresenceFanout subscribes to the room's presence channel once
// and rebroadcasts every snapshot as a PresenceSync event.
func (s *Service) ensurePresenceFanout(roomID uuid.UUID) {
	if s.presenceChannel == nil || s.runCtx == nil {
		return
	}
	if _, loaded := s.presenceRooms.LoadOrStore(roomID, struct{}{}); loaded {
		return
	}

	err := s.presenceChannel.Subscribe(s.runCtx, roomID, func(records []models.PresenceRecord) {
		s.broadcastPresenceSync(roomID, records)
	})
	if err != nil {
		s.presenceRooms.Delete(roomID)
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to subscribe to presence channel")
	}
}

func (s *Service) broadcastPresenceSync(roomID uuid.UUID, records []models.PresenceRecord) {
	members := make([]PresenceSummary, 0, len(records))
	for _, rec := range records {
		members = append(members, PresenceSummary{
			UserID:     rec.UserID.String(),
			Typing:     rec.Typing,
			LastSeenAt: rec.LastSeenAt,
		})
	}

	payload, err := json.Marshal(PresenceSyncPayload{
		RoomID:  roomID.String(),
		Members: members,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal presence sync payload")
		return
	}

	s.connectionManager.BroadcastToRoom(roomID, &RoomEvent{
		ID:        uuid.New().String(),
		RoomID:    roomID.String(),
		Type:      events.EventTypePresenceSync,
		Timestamp: time.Now(),
		Data:      payload,
	})
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "room_gateway"
	stats["status"] = "running"
	return stats
}

// BroadcastEvent allows manual event broadcasting (useful for testing)
func (s *Service) BroadcastEvent(roomID uuid.UUID, event *RoomEvent) {
	s.connectionManager.BroadcastToRoom(roomID, event)
}
