package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/studyhall/roomsync/internal/config"
	"github.com/studyhall/roomsync/internal/gateway"
	"github.com/studyhall/roomsync/internal/rooms"
)

func setupServer(cfg *config.Config, services *Services, gatewayService *gateway.Service) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	registerRoomRoutes(mux, services, gatewayService.StateHandler())
	gatewayService.RegisterRoutes(mux)
	setupHealthCheck(mux)

	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		stats := gatewayService.GetStats()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"service":"roomsync","connections":%d}`, stats["total_connections"])
	})

	handler := c.Handler(mux)

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// registerRoomRoutes mounts the room lifecycle API and the reconnect
// snapshot endpoint under the same /api/rooms subtree.
func registerRoomRoutes(mux *http.ServeMux, services *Services, stateHandler *gateway.StateHandler) {
	roomHandler := rooms.NewHandler(services.Rooms)

	mux.HandleFunc("/api/rooms", roomHandler.HandleRooms)
	mux.HandleFunc("/api/rooms/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/state") {
			stateHandler.HandleGetRoomState(w, r)
			return
		}
		roomHandler.HandleRoomSubtree(w, r)
	})
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
