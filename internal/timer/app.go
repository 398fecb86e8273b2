package timer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/studyhall/roomsync/internal/clock"
	"github.com/studyhall/roomsync/internal/events"
	"github.com/studyhall/roomsync/internal/models"
)

// TimerRepository defines what the app layer needs from the timer repository
type TimerRepository interface {
	GetState(ctx context.Context, roomID uuid.UUID) (*models.RoomTimerState, error)
	StartTimer(ctx context.Context, req StartTimerRequest) (*models.RoomTimerState, error)
	PauseTimer(ctx context.Context, state *models.RoomTimerState, req PauseTimerRequest) error
	ResumeTimer(ctx context.Context, state *models.RoomTimerState, req ResumeTimerRequest) error
	ResetTimer(ctx context.Context, req ResetTimerRequest) (*models.RoomTimerState, error)
	ListSessions(ctx context.Context, roomID uuid.UUID, limit int) ([]models.StudySession, error)
	ListEvents(ctx context.Context, roomID uuid.UUID, limit int) ([]models.TimerEvent, error)
}

// App owns the room study timer lifecycle: Idle -> Running -> Paused ->
// Running -> ... -> Idle. State is the single source of truth; the
// event log is written on every transition but never read back to
// reconstruct state.
type App struct {
	repo      TimerRepository
	publisher events.Publisher
	clock     clockwork.Clock
}

// NewApp creates a new timer App. In production pass
// clockwork.NewRealClock(); tests use a FakeClock.
func NewApp(repo TimerRepository, publisher events.Publisher, clk clockwork.Clock) *App {
	return &App{
		repo:      repo,
		publisher: publisher,
		clock:     clk,
	}
}

// GetState returns the authoritative timer row for a room, defaulting
// to idle when the room has never started a timer.
func (a *App) GetState(ctx context.Context, roomID uuid.UUID) (*models.RoomTimerState, error) {
	return a.repo.GetState(ctx, roomID)
}

// Elapsed derives the current elapsed seconds for a room.
func (a *App) Elapsed(ctx context.Context, roomID uuid.UUID) (int, error) {
	state, err := a.repo.GetState(ctx, roomID)
	if err != nil {
		return 0, err
	}
	return clock.Elapsed(state, a.clock.Now()), nil
}

// Start begins a new session. Any participant may start when no owner
// is set; once started, only the owner controls the timer.
func (a *App) Start(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomTimerState, error) {
	current, err := a.repo.GetState(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if current.StartedBy != nil {
		return nil, ErrTimerAlreadyStarted
	}

	now := a.clock.Now().UTC()
	req := StartTimerRequest{
		RoomID:    roomID,
		UserID:    userID,
		SessionID: uuid.New(),
		StartedAt: now,
	}

	state, err := a.repo.StartTimer(ctx, req)
	if err != nil {
		return nil, err
	}

	a.publish(ctx, roomID, events.EventTypeTimerStarted, events.TimerStartedPayload{
		RoomID:    roomID.String(),
		SessionID: req.SessionID.String(),
		StartedBy: userID.String(),
		StartedAt: now,
	})

	log.Info().
		Str("room_id", roomID.String()).
		Str("session_id", req.SessionID.String()).
		Str("started_by", userID.String()).
		Msg("timer started")

	return state, nil
}

// Pause freezes the timer. The elapsed value recorded with the pause
// event is derived at pause time and must survive the matching resume.
func (a *App) Pause(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomTimerState, error) {
	state, err := a.repo.GetState(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := checkAuthority(state, userID); err != nil {
		return nil, err
	}
	if !state.IsRunning {
		return nil, ErrTimerNotRunning
	}

	now := a.clock.Now().UTC()
	elapsed := clock.Elapsed(state, now)

	state.IsRunning = false
	state.PauseTime = &now
	state.UpdatedAt = now

	req := PauseTimerRequest{
		RoomID:         roomID,
		UserID:         userID,
		PausedAt:       now,
		ElapsedSeconds: elapsed,
	}
	if err := a.repo.PauseTimer(ctx, state, req); err != nil {
		return nil, err
	}

	a.publish(ctx, roomID, events.EventTypeTimerPaused, events.TimerPausedPayload{
		RoomID:         roomID.String(),
		PausedBy:       userID.String(),
		PausedAt:       now,
		ElapsedSeconds: elapsed,
	})

	log.Info().
		Str("room_id", roomID.String()).
		Int("elapsed_seconds", elapsed).
		Msg("timer paused")

	return state, nil
}

// Resume unfreezes the timer, folding the pause gap into
// TotalPausedSeconds. The elapsed value is computed before the pause is
// cleared so it equals the value recorded by the matching pause.
func (a *App) Resume(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomTimerState, error) {
	state, err := a.repo.GetState(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := checkAuthority(state, userID); err != nil {
		return nil, err
	}
	if state.IsRunning || state.PauseTime == nil {
		return nil, ErrTimerNotPaused
	}

	now := a.clock.Now().UTC()
	elapsed := clock.Elapsed(state, now)
	additionalPaused := int(now.Sub(*state.PauseTime).Seconds())
	if additionalPaused < 0 {
		additionalPaused = 0
	}

	state.TotalPausedSeconds += additionalPaused
	state.IsRunning = true
	state.PauseTime = nil
	state.UpdatedAt = now

	req := ResumeTimerRequest{
		RoomID:             roomID,
		UserID:             userID,
		ResumedAt:          now,
		TotalPausedSeconds: state.TotalPausedSeconds,
		ElapsedSeconds:     elapsed,
	}
	if err := a.repo.ResumeTimer(ctx, state, req); err != nil {
		return nil, err
	}

	a.publish(ctx, roomID, events.EventTypeTimerResumed, events.TimerResumedPayload{
		RoomID:         roomID.String(),
		ResumedBy:      userID.String(),
		ResumedAt:      now,
		ElapsedSeconds: elapsed,
	})

	log.Info().
		Str("room_id", roomID.String()).
		Int("total_paused_seconds", state.TotalPausedSeconds).
		Msg("timer resumed")

	return state, nil
}

// Reset closes the session with its final duration and returns the
// room to idle, releasing the owner lock.
func (a *App) Reset(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomTimerState, error) {
	state, err := a.repo.GetState(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := checkAuthority(state, userID); err != nil {
		return nil, err
	}
	if state.SessionID == nil {
		return nil, ErrTimerIdle
	}

	now := a.clock.Now().UTC()
	duration := clock.Elapsed(state, now)
	sessionID := *state.SessionID

	req := ResetTimerRequest{
		RoomID:          roomID,
		UserID:          userID,
		SessionID:       sessionID,
		ResetAt:         now,
		DurationSeconds: duration,
	}
	cleared, err := a.repo.ResetTimer(ctx, req)
	if err != nil {
		return nil, err
	}

	a.publish(ctx, roomID, events.EventTypeTimerReset, events.TimerResetPayload{
		RoomID:          roomID.String(),
		ResetBy:         userID.String(),
		ResetAt:         now,
		SessionID:       sessionID.String(),
		DurationSeconds: duration,
	})

	log.Info().
		Str("room_id", roomID.String()).
		Str("session_id", sessionID.String()).
		Int("duration_seconds", duration).
		Msg("timer reset")

	return cleared, nil
}

// ListSessions returns the room's session history.
func (a *App) ListSessions(ctx context.Context, roomID uuid.UUID, limit int) ([]models.StudySession, error) {
	return a.repo.ListSessions(ctx, roomID, limit)
}

// ListEvents returns the room's timer audit log.
func (a *App) ListEvents(ctx context.Context, roomID uuid.UUID, limit int) ([]models.TimerEvent, error) {
	return a.repo.ListEvents(ctx, roomID, limit)
}

// publish sends the room event to the bus. Publish failures degrade to
// a log line: the state write already committed and subscribers will
// converge on the next snapshot fetch.
func (a *App) publish(ctx context.Context, roomID uuid.UUID, eventType events.EventType, payload interface{}) {
	if err := a.publisher.PublishRoomEvent(ctx, roomID, eventType, payload); err != nil {
		log.Error().
			Err(err).
			Str("room_id", roomID.String()).
			Str("event_type", string(eventType)).
			Msg("failed to publish timer event")
	}
}

func checkAuthority(state *models.RoomTimerState, userID uuid.UUID) error {
	if state.StartedBy == nil {
		return ErrTimerIdle
	}
	if *state.StartedBy != userID {
		return fmt.Errorf("%w: timer owned by %s", ErrNotTimerOwner, state.StartedBy.String())
	}
	return nil
}
