package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhall/roomsync/internal/models"
)

// fakeChannel records tracked payloads and lets tests inject sync
// snapshots.
type fakeChannel struct {
	mu      sync.Mutex
	tracked []models.PresenceRecord
	ctxErrs []error
	onSync  func(records []models.PresenceRecord)
}

func (f *fakeChannel) Track(ctx context.Context, _ uuid.UUID, rec models.PresenceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracked = append(f.tracked, rec)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return nil
}

func (f *fakeChannel) Subscribe(_ context.Context, _ uuid.UUID, onSync func(records []models.PresenceRecord)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onSync = onSync
	return nil
}

func (f *fakeChannel) trackedRecords() []models.PresenceRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.PresenceRecord, len(f.tracked))
	copy(out, f.tracked)
	return out
}

func (f *fakeChannel) pushSync(records []models.PresenceRecord) {
	f.mu.Lock()
	onSync := f.onSync
	f.mu.Unlock()
	onSync(records)
}

func TestTrackerJoin(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	channel := &fakeChannel{}
	clk := clockwork.NewFakeClock()

	tracker := NewTracker(channel, clk, uuid.New(), userID, DefaultTypingDebounce)
	require.NoError(t, tracker.Join(ctx))

	tracked := channel.trackedRecords()
	require.Len(t, tracked, 1)
	assert.Equal(t, userID, tracked[0].UserID)
	assert.False(t, tracked[0].Typing, "join must announce typing=false")
}

func TestTrackerTyping(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("every keystroke republishes typing=true", func(t *testing.T) {
		channel := &fakeChannel{}
		clk := clockwork.NewFakeClock()
		tracker := NewTracker(channel, clk, uuid.New(), userID, 1200*time.Millisecond)

		require.NoError(t, tracker.Keystroke(ctx))
		require.NoError(t, tracker.Keystroke(ctx))
		require.NoError(t, tracker.Keystroke(ctx))

		tracked := channel.trackedRecords()
		require.Len(t, tracked, 3)
		for _, rec := range tracked {
			assert.True(t, rec.Typing)
		}
	})

	t.Run("continuous typing keeps the record ahead of stale eviction", func(t *testing.T) {
		channel := &fakeChannel{}
		clk := clockwork.NewFakeClock()
		tracker := NewTracker(channel, clk, uuid.New(), userID, 1200*time.Millisecond)

		// A user typing one character per second for well past the
		// channel's 30s stale window.
		for i := 0; i < 35; i++ {
			require.NoError(t, tracker.Keystroke(ctx))
			clk.Advance(time.Second)
		}

		tracked := channel.trackedRecords()
		require.NotEmpty(t, tracked)
		newest := tracked[len(tracked)-1]
		age := clk.Now().Sub(newest.LastSeenAt)
		assert.Less(t, age, staleAfter, "actively typing user must stay fresher than the stale cutoff")
	})

	t.Run("debounce expiry publishes typing=false", func(t *testing.T) {
		channel := &fakeChannel{}
		clk := clockwork.NewFakeClock()
		tracker := NewTracker(channel, clk, uuid.New(), userID, 1200*time.Millisecond)

		require.NoError(t, tracker.Keystroke(ctx))
		clk.Advance(1200 * time.Millisecond)

		assert.Eventually(t, func() bool {
			tracked := channel.trackedRecords()
			return len(tracked) == 2 && !tracked[1].Typing
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("keystroke refreshes the debounce window", func(t *testing.T) {
		channel := &fakeChannel{}
		clk := clockwork.NewFakeClock()
		tracker := NewTracker(channel, clk, uuid.New(), userID, 1200*time.Millisecond)

		require.NoError(t, tracker.Keystroke(ctx))
		clk.Advance(1000 * time.Millisecond)
		require.NoError(t, tracker.Keystroke(ctx))
		clk.Advance(1000 * time.Millisecond)

		// Neither window has fully elapsed since the last keystroke, so
		// only the two typing=true publishes have happened.
		tracked := channel.trackedRecords()
		assert.Len(t, tracked, 2)

		clk.Advance(200 * time.Millisecond)
		assert.Eventually(t, func() bool {
			tracked := channel.trackedRecords()
			return len(tracked) == 3 && !tracked[2].Typing
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("expiry publishes even after the keystroke context is cancelled", func(t *testing.T) {
		channel := &fakeChannel{}
		clk := clockwork.NewFakeClock()
		tracker := NewTracker(channel, clk, uuid.New(), userID, 1200*time.Millisecond)
		require.NoError(t, tracker.Join(context.Background()))

		keyCtx, cancel := context.WithCancel(context.Background())
		require.NoError(t, tracker.Keystroke(keyCtx))
		cancel()

		clk.Advance(1200 * time.Millisecond)
		assert.Eventually(t, func() bool {
			tracked := channel.trackedRecords()
			return len(tracked) == 3 && !tracked[2].Typing
		}, time.Second, 5*time.Millisecond)

		// The expiry publish runs on the tracker's lifetime context, not
		// the long-cancelled keystroke context.
		channel.mu.Lock()
		lastCtxErr := channel.ctxErrs[len(channel.ctxErrs)-1]
		channel.mu.Unlock()
		assert.NoError(t, lastCtxErr)
	})
}

func TestTrackerSync(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	other1 := uuid.New()
	other2 := uuid.New()

	channel := &fakeChannel{}
	clk := clockwork.NewFakeClock()
	tracker := NewTracker(channel, clk, uuid.New(), userID, DefaultTypingDebounce)
	require.NoError(t, tracker.Join(ctx))

	t.Run("snapshot rebuilds the member set from scratch", func(t *testing.T) {
		channel.pushSync([]models.PresenceRecord{
			{UserID: userID},
			{UserID: other1},
			{UserID: other2},
		})
		assert.Len(t, tracker.Members(), 3)

		// A member disconnects: the next snapshot simply omits them
		channel.pushSync([]models.PresenceRecord{
			{UserID: userID},
			{UserID: other1},
		})
		assert.Len(t, tracker.Members(), 2)
	})

	t.Run("typing label excludes the local user", func(t *testing.T) {
		channel.pushSync([]models.PresenceRecord{
			{UserID: userID, Typing: true},
			{UserID: other1},
		})
		assert.Equal(t, 0, tracker.TypingCount())
		assert.Equal(t, "", tracker.TypingLabel())

		channel.pushSync([]models.PresenceRecord{
			{UserID: userID},
			{UserID: other1, Typing: true},
		})
		assert.Equal(t, "1 person is typing...", tracker.TypingLabel())

		channel.pushSync([]models.PresenceRecord{
			{UserID: userID},
			{UserID: other1, Typing: true},
			{UserID: other2, Typing: true},
		})
		assert.Equal(t, "2 people are typing...", tracker.TypingLabel())
	})
}
