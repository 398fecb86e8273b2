package main

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/studyhall/roomsync/internal/chat"
	"github.com/studyhall/roomsync/internal/config"
	"github.com/studyhall/roomsync/internal/events"
	"github.com/studyhall/roomsync/internal/gateway"
	"github.com/studyhall/roomsync/internal/playback"
	"github.com/studyhall/roomsync/internal/presence"
	"github.com/studyhall/roomsync/internal/rooms"
	"github.com/studyhall/roomsync/internal/timer"
)

type Services struct {
	Rooms    *rooms.App
	Timer    *timer.App
	Playback *playback.App
	Chat     *chat.App
	Presence presence.Channel

	StateProvider gateway.StateProvider
	Commands      gateway.CommandHandler
}

func setupServices(database *sql.DB, pool *pgxpool.Pool, rdb *redis.Client, publisher events.Publisher, cfg *config.Config) *Services {
	// Database layer → Repository layer → App layer
	clk := clockwork.NewRealClock()

	roomsRepo := rooms.NewRepository(database)
	roomsApp := rooms.NewApp(roomsRepo)

	timerRepo := timer.NewRepository(database)
	timerApp := timer.NewApp(timerRepo, publisher, clk)

	playbackRepo := playback.NewRepository(database)
	playbackApp := playback.NewApp(playbackRepo, roomsApp, publisher, clk)

	chatRepo := chat.NewRepository(pool)
	chatApp := chat.NewApp(chatRepo, publisher)

	presenceChannel := presence.NewRedisChannel(rdb)

	stateProvider := gateway.NewRoomStateProvider(timerApp, playbackApp, chatApp, clk, cfg.Sync.MessageHistoryMax)
	commands := gateway.NewRouter(timerApp, playbackApp, chatApp, presenceChannel)

	return &Services{
		Rooms:         roomsApp,
		Timer:         timerApp,
		Playback:      playbackApp,
		Chat:          chatApp,
		Presence:      presenceChannel,
		StateProvider: stateProvider,
		Commands:      commands,
	}
}
