package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/studyhall/roomsync/internal/models"
)

// DefaultTypingDebounce is the inactivity window after the last
// keystroke before typing=false is republished.
const DefaultTypingDebounce = 1200 * time.Millisecond

// Channel is the ephemeral presence transport: track publishes the
// local payload, Subscribe delivers full member snapshots. Nothing on
// the channel is ever persisted.
type Channel interface {
	Track(ctx context.Context, roomID uuid.UUID, rec models.PresenceRecord) error
	Subscribe(ctx context.Context, roomID uuid.UUID, onSync func(records []models.PresenceRecord)) error
}

// Tracker maintains one participant's view of a room's ephemeral
// membership and typing indicators. Every sync snapshot rebuilds the
// member set from scratch; snapshots are never incremental diffs.
type Tracker struct {
	channel  Channel
	clock    clockwork.Clock
	debounce time.Duration

	roomID uuid.UUID
	userID uuid.UUID

	mu          sync.Mutex
	runCtx      context.Context
	members     map[uuid.UUID]models.PresenceRecord
	typing      bool
	typingTimer clockwork.Timer
}

// NewTracker creates a presence tracker for one participant in one room.
func NewTracker(channel Channel, clk clockwork.Clock, roomID, userID uuid.UUID, debounce time.Duration) *Tracker {
	if debounce <= 0 {
		debounce = DefaultTypingDebounce
	}
	return &Tracker{
		channel:  channel,
		clock:    clk,
		debounce: debounce,
		roomID:   roomID,
		userID:   userID,
		members:  make(map[uuid.UUID]models.PresenceRecord),
	}
}

// Join subscribes to the room's sync snapshots and announces the local
// participant with typing=false. The context is retained for the
// tracker's lifetime and backs the debounce-expiry publish.
func (t *Tracker) Join(ctx context.Context) error {
	t.mu.Lock()
	t.runCtx = ctx
	t.mu.Unlock()

	if err := t.channel.Subscribe(ctx, t.roomID, t.handleSync); err != nil {
		return err
	}
	return t.publish(ctx, false)
}

// Keystroke is called on every local compose-field keystroke. Each
// call republishes typing=true, keeping the record's last_seen_at ahead
// of the channel's stale cutoff while the user types, and refreshes the
// debounce timer; when the timer expires without further keystrokes,
// typing=false is published.
func (t *Tracker) Keystroke(ctx context.Context) error {
	t.mu.Lock()
	t.typing = true
	if t.typingTimer != nil {
		t.typingTimer.Stop()
	}
	t.typingTimer = t.clock.AfterFunc(t.debounce, t.stopTyping)
	t.mu.Unlock()

	return t.publish(ctx, true)
}

// stopTyping fires on debounce expiry. It publishes on the tracker's
// Join context rather than the keystroke's, which may be
// request-scoped and long cancelled by the time the timer fires.
func (t *Tracker) stopTyping() {
	t.mu.Lock()
	t.typing = false
	ctx := t.runCtx
	t.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	_ = t.publish(ctx, false)
}

// handleSync rebuilds the full member set from a snapshot.
func (t *Tracker) handleSync(records []models.PresenceRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.members = make(map[uuid.UUID]models.PresenceRecord, len(records))
	for _, rec := range records {
		t.members[rec.UserID] = rec
	}
}

// Members returns the current member snapshot.
func (t *Tracker) Members() []models.PresenceRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.PresenceRecord, 0, len(t.members))
	for _, rec := range t.members {
		out = append(out, rec)
	}
	return out
}

// TypingCount returns how many other participants are typing. The
// local user is always excluded.
func (t *Tracker) TypingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for id, rec := range t.members {
		if id != t.userID && rec.Typing {
			count++
		}
	}
	return count
}

// TypingLabel derives the "N typing" indicator string, empty when no
// one else is typing.
func (t *Tracker) TypingLabel() string {
	switch n := t.TypingCount(); n {
	case 0:
		return ""
	case 1:
		return "1 person is typing..."
	default:
		return fmt.Sprintf("%d people are typing...", n)
	}
}

func (t *Tracker) publish(ctx context.Context, typing bool) error {
	return t.channel.Track(ctx, t.roomID, models.PresenceRecord{
		UserID:     t.userID,
		Typing:     typing,
		LastSeenAt: t.clock.Now(),
	})
}
