package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/studyhall/roomsync/internal/models"
)

// DefaultGraceWindow is how long a sent optimistic shadow survives
// after a successful write while waiting for its authoritative echo.
const DefaultGraceWindow = 3 * time.Second

// SendFunc issues the persistence write for a message and returns the
// authoritative row.
type SendFunc func(ctx context.Context, content string) (*models.Message, error)

// VisibleMessage is one entry of the rendered message list: either an
// authoritative message or an optimistic shadow still awaiting its echo.
type VisibleMessage struct {
	ID        uuid.UUID            `json:"id"`
	UserID    uuid.UUID            `json:"user_id"`
	Content   string               `json:"content"`
	CreatedAt time.Time            `json:"created_at"`
	Pending   bool                 `json:"pending"`
	Status    models.PendingStatus `json:"status,omitempty"`
}

// Reconciler manages the sender-local optimistic message list: shadows
// appear instantly at the tail, the authoritative echo replaces them
// without duplication, and failed writes roll back to the compose field.
//
// Dedup, not ordering, is the correctness mechanism: a client's own
// write may be echoed back out of band from its local optimistic
// mutation, and reconnect replay may deliver the same message twice.
type Reconciler struct {
	send  SendFunc
	clock clockwork.Clock
	grace time.Duration

	userID uuid.UUID
	roomID uuid.UUID

	// OnRestoreInput receives the original content of a failed send so
	// the compose field can be refilled.
	OnRestoreInput func(content string)

	mu       sync.Mutex
	messages []models.Message
	pendings []models.PendingMessage
	seen     map[uuid.UUID]struct{}
	timers   map[uuid.UUID]clockwork.Timer
}

// NewReconciler creates a message reconciler for one participant in
// one room.
func NewReconciler(roomID, userID uuid.UUID, send SendFunc, clk clockwork.Clock, grace time.Duration) *Reconciler {
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	return &Reconciler{
		send:   send,
		clock:  clk,
		grace:  grace,
		userID: userID,
		roomID: roomID,
		seen:   make(map[uuid.UUID]struct{}),
		timers: make(map[uuid.UUID]clockwork.Timer),
	}
}

// SetHistory rebuilds the authoritative list from a snapshot, e.g. on
// (re)subscription. Pendings survive: their echoes may still be in
// flight.
func (r *Reconciler) SetHistory(msgs []models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = make([]models.Message, len(msgs))
	copy(r.messages, msgs)
	r.seen = make(map[uuid.UUID]struct{}, len(msgs))
	for _, m := range msgs {
		r.seen[m.ID] = struct{}{}
	}
	r.sortLocked()
}

// Send inserts the optimistic shadow at the tail of the visible list,
// then issues the persistence write. The shadow uses local now() as a
// provisional timestamp; it is transient, so timestamp skew does not
// matter.
func (r *Reconciler) Send(ctx context.Context, content string) uuid.UUID {
	tempID := uuid.New()
	pending := models.PendingMessage{
		TempID:    tempID,
		RoomID:    r.roomID,
		UserID:    r.userID,
		Content:   content,
		Status:    models.PendingStatusSending,
		CreatedAt: r.clock.Now(),
	}

	r.mu.Lock()
	r.pendings = append(r.pendings, pending)
	r.mu.Unlock()

	msg, err := r.send(ctx, content)
	if err != nil {
		r.failPending(tempID, content, err)
		return tempID
	}

	r.settlePending(tempID, msg)
	return tempID
}

// HandleEcho processes an authoritative message from the push channel.
// The id is checked against every displayed id, including already
// reconciled ones, before appending, so duplicate delivery from
// reconnect replay is a no-op.
func (r *Reconciler) HandleEcho(msg models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.seen[msg.ID]; dup {
		return
	}
	r.seen[msg.ID] = struct{}{}
	r.messages = append(r.messages, msg)
	r.sortLocked()

	// The echo renders in place of the matching shadow. Shadows carry
	// no server id, so the match is by author and content, with the
	// provisional timestamp nearest the authoritative one breaking ties
	// between identical in-flight sends.
	best := -1
	var bestDiff time.Duration
	for i, p := range r.pendings {
		if p.UserID != msg.UserID || p.Content != msg.Content || p.Status == models.PendingStatusFailed {
			continue
		}
		diff := msg.CreatedAt.Sub(p.CreatedAt)
		if diff < 0 {
			diff = -diff
		}
		if best < 0 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	if best >= 0 {
		r.removePendingLocked(best)
	}
}

// Messages returns the rendered list: authoritative messages in
// ascending created_at order, optimistic shadows at the tail.
func (r *Reconciler) Messages() []VisibleMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]VisibleMessage, 0, len(r.messages)+len(r.pendings))
	for _, m := range r.messages {
		out = append(out, VisibleMessage{
			ID:        m.ID,
			UserID:    m.UserID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	for _, p := range r.pendings {
		out = append(out, VisibleMessage{
			ID:        p.TempID,
			UserID:    p.UserID,
			Content:   p.Content,
			CreatedAt: p.CreatedAt,
			Pending:   true,
			Status:    p.Status,
		})
	}
	return out
}

// settlePending marks the shadow sent and arms the grace timer. The
// shadow is removed when either the grace window elapses or the echo
// arrives, whichever happens first.
func (r *Reconciler) settlePending(tempID uuid.UUID, msg *models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.findPendingLocked(tempID)
	if idx < 0 {
		// Echo already reconciled the shadow before the write returned.
		return
	}
	r.pendings[idx].Status = models.PendingStatusSent

	r.timers[tempID] = r.clock.AfterFunc(r.grace, func() {
		r.expirePending(tempID)
	})
}

// expirePending drops a sent shadow whose grace window elapsed without
// an echo. The authoritative copy is already in the store; it will
// render from the next history snapshot.
func (r *Reconciler) expirePending(tempID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx := r.findPendingLocked(tempID); idx >= 0 {
		r.removePendingLocked(idx)
	}
}

// failPending rolls a failed send back: the shadow leaves the list and
// the original content returns to the compose field.
func (r *Reconciler) failPending(tempID uuid.UUID, content string, sendErr error) {
	r.mu.Lock()
	if idx := r.findPendingLocked(tempID); idx >= 0 {
		r.pendings[idx].Status = models.PendingStatusFailed
		r.removePendingLocked(idx)
	}
	restore := r.OnRestoreInput
	r.mu.Unlock()

	log.Warn().
		Err(sendErr).
		Str("room_id", r.roomID.String()).
		Msg("message send failed, rolling back")

	if restore != nil {
		restore(content)
	}
}

func (r *Reconciler) findPendingLocked(tempID uuid.UUID) int {
	for i, p := range r.pendings {
		if p.TempID == tempID {
			return i
		}
	}
	return -1
}

func (r *Reconciler) removePendingLocked(i int) {
	tempID := r.pendings[i].TempID
	if t, ok := r.timers[tempID]; ok {
		t.Stop()
		delete(r.timers, tempID)
	}
	r.pendings = append(r.pendings[:i], r.pendings[i+1:]...)
}

func (r *Reconciler) sortLocked() {
	sort.SliceStable(r.messages, func(i, j int) bool {
		return r.messages[i].CreatedAt.Before(r.messages[j].CreatedAt)
	})
}
