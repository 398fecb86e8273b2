package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/studyhall/roomsync/internal/models"
)

// staleAfter is how long a member survives without republishing before
// dropping out of the next sync snapshot. A disconnected client stops
// republishing and is removed implicitly.
const staleAfter = 30 * time.Second

// RedisChannel is the presence transport over Redis: a hash per room
// holds the latest record per member, and every track publishes a full
// snapshot on the room's pub/sub channel.
type RedisChannel struct {
	rdb *redis.Client
}

// NewRedisChannel creates a presence channel over an existing Redis
// client.
func NewRedisChannel(rdb *redis.Client) *RedisChannel {
	return &RedisChannel{rdb: rdb}
}

func presenceKey(roomID uuid.UUID) string {
	return "presence:" + roomID.String()
}

func syncChannel(roomID uuid.UUID) string {
	return "presence:sync:" + roomID.String()
}

// Track stores the member's record and broadcasts a fresh full
// snapshot to every subscriber.
func (c *RedisChannel) Track(ctx context.Context, roomID uuid.UUID, rec models.PresenceRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal presence record: %w", err)
	}

	key := presenceKey(roomID)
	if err := c.rdb.HSet(ctx, key, rec.UserID.String(), payload).Err(); err != nil {
		return fmt.Errorf("failed to track presence: %w", err)
	}
	// The hash as a whole ages out with the room when everyone is gone.
	c.rdb.Expire(ctx, key, 2*staleAfter)

	snapshot, err := c.snapshot(ctx, roomID)
	if err != nil {
		return err
	}

	snapshotBytes, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal presence snapshot: %w", err)
	}
	if err := c.rdb.Publish(ctx, syncChannel(roomID), snapshotBytes).Err(); err != nil {
		return fmt.Errorf("failed to publish presence snapshot: %w", err)
	}
	return nil
}

// Subscribe delivers the current snapshot immediately, then every
// subsequent snapshot published for the room until ctx is cancelled.
func (c *RedisChannel) Subscribe(ctx context.Context, roomID uuid.UUID, onSync func(records []models.PresenceRecord)) error {
	pubsub := c.rdb.Subscribe(ctx, syncChannel(roomID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("failed to subscribe to presence channel: %w", err)
	}

	// Initial snapshot so late joiners see the current room state.
	if snapshot, err := c.snapshot(ctx, roomID); err == nil {
		onSync(snapshot)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var records []models.PresenceRecord
				if err := json.Unmarshal([]byte(msg.Payload), &records); err != nil {
					log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to unmarshal presence snapshot")
					continue
				}
				onSync(records)
			}
		}
	}()

	return nil
}

// snapshot reads the full member hash, dropping members that have gone
// stale.
func (c *RedisChannel) snapshot(ctx context.Context, roomID uuid.UUID) ([]models.PresenceRecord, error) {
	fields, err := c.rdb.HGetAll(ctx, presenceKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read presence hash: %w", err)
	}

	cutoff := time.Now().Add(-staleAfter)
	records := make([]models.PresenceRecord, 0, len(fields))
	for field, raw := range fields {
		var rec models.PresenceRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			log.Warn().Str("field", field).Msg("dropping malformed presence record")
			continue
		}
		if rec.LastSeenAt.Before(cutoff) {
			c.rdb.HDel(ctx, presenceKey(roomID), field)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
