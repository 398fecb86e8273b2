package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhall/roomsync/internal/models"
)

func okSend(userID, roomID uuid.UUID, clk clockwork.Clock) SendFunc {
	return func(_ context.Context, content string) (*models.Message, error) {
		return &models.Message{
			ID:        uuid.New(),
			RoomID:    roomID,
			UserID:    userID,
			Content:   content,
			CreatedAt: clk.Now(),
		}, nil
	}
}

func contents(msgs []VisibleMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

func TestReconcilerSend(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	ctx := context.Background()

	t.Run("shadow appears instantly at the tail", func(t *testing.T) {
		clk := clockwork.NewFakeClock()

		blocked := make(chan struct{})
		send := func(_ context.Context, content string) (*models.Message, error) {
			<-blocked
			return &models.Message{ID: uuid.New(), RoomID: roomID, UserID: userID, Content: content, CreatedAt: clk.Now()}, nil
		}
		r := NewReconciler(roomID, userID, send, clk, DefaultGraceWindow)
		r.SetHistory([]models.Message{
			{ID: uuid.New(), RoomID: roomID, UserID: uuid.New(), Content: "earlier", CreatedAt: clk.Now().Add(-time.Minute)},
		})

		done := make(chan struct{})
		go func() {
			r.Send(ctx, "hello")
			close(done)
		}()

		// The shadow must be visible while the write is still in flight
		assert.Eventually(t, func() bool {
			msgs := r.Messages()
			return len(msgs) == 2 && msgs[1].Pending && msgs[1].Status == models.PendingStatusSending
		}, time.Second, 5*time.Millisecond)

		close(blocked)
		<-done
	})

	t.Run("echo replaces the shadow without duplication", func(t *testing.T) {
		clk := clockwork.NewFakeClock()
		r := NewReconciler(roomID, userID, okSend(userID, roomID, clk), clk, DefaultGraceWindow)

		r.Send(ctx, "hello")
		require.Equal(t, []string{"hello"}, contents(r.Messages()))

		r.HandleEcho(models.Message{
			ID:        uuid.New(),
			RoomID:    roomID,
			UserID:    userID,
			Content:   "hello",
			CreatedAt: clk.Now(),
		})

		msgs := r.Messages()
		require.Len(t, msgs, 1, "echo and shadow must not render together")
		assert.False(t, msgs[0].Pending)
	})

	t.Run("failed send rolls back to the compose field", func(t *testing.T) {
		clk := clockwork.NewFakeClock()
		send := func(context.Context, string) (*models.Message, error) {
			return nil, errors.New("connection reset")
		}
		r := NewReconciler(roomID, userID, send, clk, DefaultGraceWindow)

		var restored string
		r.OnRestoreInput = func(content string) { restored = content }

		r.Send(ctx, "doomed message")
		assert.Empty(t, r.Messages(), "failed shadow must leave the list")
		assert.Equal(t, "doomed message", restored)
	})

	t.Run("grace window expires an unechoed shadow", func(t *testing.T) {
		clk := clockwork.NewFakeClock()
		r := NewReconciler(roomID, userID, okSend(userID, roomID, clk), clk, 3*time.Second)

		r.Send(ctx, "hello")
		msgs := r.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, models.PendingStatusSent, msgs[0].Status)

		clk.Advance(3 * time.Second)
		assert.Eventually(t, func() bool {
			return len(r.Messages()) == 0
		}, time.Second, 5*time.Millisecond, "shadow must drop after the grace window")
	})
}

func TestReconcilerDedup(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()

	t.Run("duplicate echo delivery is a no-op", func(t *testing.T) {
		clk := clockwork.NewFakeClock()
		r := NewReconciler(roomID, userID, okSend(userID, roomID, clk), clk, DefaultGraceWindow)

		msg := models.Message{ID: uuid.New(), RoomID: roomID, UserID: userID, Content: "once", CreatedAt: clk.Now()}
		r.HandleEcho(msg)
		r.HandleEcho(msg)
		r.HandleEcho(msg)

		assert.Len(t, r.Messages(), 1)
	})

	t.Run("reconnect replay after reconciliation stays deduplicated", func(t *testing.T) {
		clk := clockwork.NewFakeClock()
		r := NewReconciler(roomID, userID, okSend(userID, roomID, clk), clk, DefaultGraceWindow)

		r.Send(context.Background(), "hello")
		echo := models.Message{ID: uuid.New(), RoomID: roomID, UserID: userID, Content: "hello", CreatedAt: clk.Now()}
		r.HandleEcho(echo)
		require.Len(t, r.Messages(), 1)

		// Replay of the same message id after the shadow is gone
		r.HandleEcho(echo)
		assert.Len(t, r.Messages(), 1)
	})

	t.Run("echo reconciles the nearest of two identical in-flight sends", func(t *testing.T) {
		clk := clockwork.NewFakeClock()
		blocked := make(chan struct{})
		send := func(_ context.Context, content string) (*models.Message, error) {
			<-blocked
			return &models.Message{ID: uuid.New(), RoomID: roomID, UserID: userID, Content: content, CreatedAt: clk.Now()}, nil
		}
		r := NewReconciler(roomID, userID, send, clk, DefaultGraceWindow)
		firstAt := clk.Now()

		done := make(chan struct{}, 2)
		go func() {
			r.Send(context.Background(), "brb")
			done <- struct{}{}
		}()
		require.Eventually(t, func() bool {
			return len(r.Messages()) == 1
		}, time.Second, 5*time.Millisecond)

		clk.Advance(10 * time.Second)
		go func() {
			r.Send(context.Background(), "brb")
			done <- struct{}{}
		}()
		require.Eventually(t, func() bool {
			return len(r.Messages()) == 2
		}, time.Second, 5*time.Millisecond)

		// The echo's timestamp sits on the second send, so it must
		// replace the second shadow and leave the first one pending.
		r.HandleEcho(models.Message{
			ID:        uuid.New(),
			RoomID:    roomID,
			UserID:    userID,
			Content:   "brb",
			CreatedAt: clk.Now(),
		})

		msgs := r.Messages()
		require.Len(t, msgs, 2)
		require.True(t, msgs[1].Pending)
		assert.Equal(t, firstAt, msgs[1].CreatedAt, "the earlier shadow must be the one still pending")

		close(blocked)
		<-done
		<-done
	})

	t.Run("identical content from two users renders twice", func(t *testing.T) {
		clk := clockwork.NewFakeClock()
		r := NewReconciler(roomID, userID, okSend(userID, roomID, clk), clk, DefaultGraceWindow)

		r.HandleEcho(models.Message{ID: uuid.New(), RoomID: roomID, UserID: uuid.New(), Content: "same words", CreatedAt: clk.Now()})
		r.HandleEcho(models.Message{ID: uuid.New(), RoomID: roomID, UserID: uuid.New(), Content: "same words", CreatedAt: clk.Now()})

		assert.Len(t, r.Messages(), 2, "dedup is by id, not by content")
	})
}

func TestReconcilerHistory(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	clk := clockwork.NewFakeClock()
	base := clk.Now()

	t.Run("history renders in created_at order", func(t *testing.T) {
		r := NewReconciler(roomID, userID, okSend(userID, roomID, clk), clk, DefaultGraceWindow)

		r.SetHistory([]models.Message{
			{ID: uuid.New(), Content: "third", CreatedAt: base.Add(3 * time.Second)},
			{ID: uuid.New(), Content: "first", CreatedAt: base.Add(1 * time.Second)},
			{ID: uuid.New(), Content: "second", CreatedAt: base.Add(2 * time.Second)},
		})

		assert.Equal(t, []string{"first", "second", "third"}, contents(r.Messages()))
	})

	t.Run("history snapshot replaces duplicates from replay", func(t *testing.T) {
		r := NewReconciler(roomID, userID, okSend(userID, roomID, clk), clk, DefaultGraceWindow)

		msg := models.Message{ID: uuid.New(), Content: "kept once", CreatedAt: base}
		r.SetHistory([]models.Message{msg})
		r.HandleEcho(msg)
		r.SetHistory([]models.Message{msg})

		assert.Len(t, r.Messages(), 1)
	})

	t.Run("pending shadows survive a history rebuild", func(t *testing.T) {
		blocked := make(chan struct{})
		send := func(_ context.Context, content string) (*models.Message, error) {
			<-blocked
			return &models.Message{ID: uuid.New(), RoomID: roomID, UserID: userID, Content: content, CreatedAt: clk.Now()}, nil
		}
		r := NewReconciler(roomID, userID, send, clk, DefaultGraceWindow)

		done := make(chan struct{})
		go func() {
			r.Send(context.Background(), "in flight")
			close(done)
		}()

		require.Eventually(t, func() bool {
			return len(r.Messages()) == 1
		}, time.Second, 5*time.Millisecond)

		r.SetHistory([]models.Message{
			{ID: uuid.New(), Content: "from snapshot", CreatedAt: base},
		})

		msgs := r.Messages()
		require.Len(t, msgs, 2)
		assert.True(t, msgs[1].Pending, "in-flight shadow must survive the snapshot")

		close(blocked)
		<-done
	})
}
