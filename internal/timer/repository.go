package timer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
	"github.com/studyhall/roomsync/internal/models"
	"github.com/studyhall/roomsync/internal/sqlutil"
)

// Repository persists timer state, session records and the append-only
// event log. Every transition commits state, session and event rows in
// a single transaction so subscribers never observe a half-applied
// transition.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetState returns the timer row for a room. A missing row is not an
// error: callers get the idle default state.
func (r *Repository) GetState(ctx context.Context, roomID uuid.UUID) (*models.RoomTimerState, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT room_id, is_running, start_time, pause_time, total_paused_seconds, session_id, started_by, updated_at "+
			"FROM room_timer_state WHERE room_id = $1",
		roomID,
	)

	state, err := scanTimerState(row)
	if err == sql.ErrNoRows {
		return &models.RoomTimerState{RoomID: roomID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get timer state: %w", err)
	}
	return state, nil
}

// StartTimer creates the session row, writes the running state and
// appends the start event.
func (r *Repository) StartTimer(ctx context.Context, req StartTimerRequest) (*models.RoomTimerState, error) {
	state := &models.RoomTimerState{
		RoomID:    req.RoomID,
		IsRunning: true,
		StartTime: &req.StartedAt,
		SessionID: &req.SessionID,
		StartedBy: &req.UserID,
		UpdatedAt: req.StartedAt,
	}

	err := sqlutil.Run(ctx, r.db, newQueries, func(q *queries) error {
		if err := q.insertSession(ctx, req.SessionID, req.RoomID, req.UserID, req.StartedAt); err != nil {
			return err
		}
		if err := q.upsertState(ctx, state); err != nil {
			return err
		}
		return q.appendEvent(ctx, AppendEventRequest{
			RoomID:                req.RoomID,
			UserID:                req.UserID,
			Action:                models.TimerActionStart,
			ElapsedSecondsAtEvent: 0,
			StateSnapshot:         state,
		}, req.StartedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start timer: %w", err)
	}
	return state, nil
}

// PauseTimer writes the paused state and appends the pause event.
func (r *Repository) PauseTimer(ctx context.Context, state *models.RoomTimerState, req PauseTimerRequest) error {
	err := sqlutil.Run(ctx, r.db, newQueries, func(q *queries) error {
		if err := q.upsertState(ctx, state); err != nil {
			return err
		}
		return q.appendEvent(ctx, AppendEventRequest{
			RoomID:                req.RoomID,
			UserID:                req.UserID,
			Action:                models.TimerActionPause,
			ElapsedSecondsAtEvent: req.ElapsedSeconds,
			StateSnapshot:         state,
		}, req.PausedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to pause timer: %w", err)
	}
	return nil
}

// ResumeTimer writes the running state and appends the resume event.
func (r *Repository) ResumeTimer(ctx context.Context, state *models.RoomTimerState, req ResumeTimerRequest) error {
	err := sqlutil.Run(ctx, r.db, newQueries, func(q *queries) error {
		if err := q.upsertState(ctx, state); err != nil {
			return err
		}
		return q.appendEvent(ctx, AppendEventRequest{
			RoomID:                req.RoomID,
			UserID:                req.UserID,
			Action:                models.TimerActionResume,
			ElapsedSecondsAtEvent: req.ElapsedSeconds,
			StateSnapshot:         state,
		}, req.ResumedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to resume timer: %w", err)
	}
	return nil
}

// ResetTimer closes the session with its final duration, clears the
// state row back to idle and appends the reset event.
func (r *Repository) ResetTimer(ctx context.Context, req ResetTimerRequest) (*models.RoomTimerState, error) {
	state := &models.RoomTimerState{
		RoomID:    req.RoomID,
		UpdatedAt: req.ResetAt,
	}

	err := sqlutil.Run(ctx, r.db, newQueries, func(q *queries) error {
		if err := q.closeSession(ctx, req.SessionID, req.DurationSeconds, req.ResetAt); err != nil {
			return err
		}
		if err := q.upsertState(ctx, state); err != nil {
			return err
		}
		return q.appendEvent(ctx, AppendEventRequest{
			RoomID:                req.RoomID,
			UserID:                req.UserID,
			Action:                models.TimerActionReset,
			ElapsedSecondsAtEvent: req.DurationSeconds,
			StateSnapshot:         state,
		}, req.ResetAt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset timer: %w", err)
	}
	return state, nil
}

// ListSessions returns completed and in-progress sessions for a room,
// most recent first.
func (r *Repository) ListSessions(ctx context.Context, roomID uuid.UUID, limit int) ([]models.StudySession, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, room_id, started_by, duration_seconds, started_at, ended_at "+
			"FROM study_sessions WHERE room_id = $1 ORDER BY started_at DESC LIMIT $2",
		roomID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		var s models.StudySession
		var endedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.RoomID, &s.StartedBy, &s.DurationSeconds, &s.StartedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.EndedAt = sqlutil.FromSqlTime(endedAt)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListEvents returns the audit log for a room in append order.
func (r *Repository) ListEvents(ctx context.Context, roomID uuid.UUID, limit int) ([]models.TimerEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, room_id, user_id, action, elapsed_seconds_at_event, created_at "+
			"FROM timer_events WHERE room_id = $1 ORDER BY created_at ASC LIMIT $2",
		roomID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list timer events: %w", err)
	}
	defer rows.Close()

	var evts []models.TimerEvent
	for rows.Next() {
		var e models.TimerEvent
		if err := rows.Scan(&e.ID, &e.RoomID, &e.UserID, &e.Action, &e.ElapsedSecondsAtEvent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timer event: %w", err)
		}
		evts = append(evts, e)
	}
	return evts, rows.Err()
}

// queries binds the transition statements to a single transaction.
type queries struct {
	tx *sql.Tx
}

func newQueries(tx *sql.Tx) *queries {
	return &queries{tx: tx}
}

func (q *queries) insertSession(ctx context.Context, id, roomID, startedBy uuid.UUID, startedAt interface{}) error {
	_, err := q.tx.ExecContext(ctx,
		"INSERT INTO study_sessions (id, room_id, started_by, duration_seconds, started_at) VALUES ($1, $2, $3, 0, $4)",
		id, roomID, startedBy, startedAt,
	)
	return err
}

func (q *queries) closeSession(ctx context.Context, id uuid.UUID, duration int, endedAt interface{}) error {
	_, err := q.tx.ExecContext(ctx,
		"UPDATE study_sessions SET duration_seconds = $2, ended_at = $3 WHERE id = $1",
		id, duration, endedAt,
	)
	return err
}

func (q *queries) upsertState(ctx context.Context, state *models.RoomTimerState) error {
	_, err := q.tx.ExecContext(ctx,
		"INSERT INTO room_timer_state (room_id, is_running, start_time, pause_time, total_paused_seconds, session_id, started_by, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8) "+
			"ON CONFLICT (room_id) DO UPDATE SET "+
			"is_running = EXCLUDED.is_running, start_time = EXCLUDED.start_time, pause_time = EXCLUDED.pause_time, "+
			"total_paused_seconds = EXCLUDED.total_paused_seconds, session_id = EXCLUDED.session_id, "+
			"started_by = EXCLUDED.started_by, updated_at = EXCLUDED.updated_at",
		state.RoomID,
		state.IsRunning,
		sqlutil.ToSqlTime(state.StartTime),
		sqlutil.ToSqlTime(state.PauseTime),
		state.TotalPausedSeconds,
		sqlutil.ToNullUUID(state.SessionID),
		sqlutil.ToNullUUID(state.StartedBy),
		state.UpdatedAt,
	)
	return err
}

func (q *queries) appendEvent(ctx context.Context, req AppendEventRequest, at interface{}) error {
	var snapshot pqtype.NullRawMessage
	if req.StateSnapshot != nil {
		raw, err := json.Marshal(req.StateSnapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal state snapshot: %w", err)
		}
		snapshot = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	_, err := q.tx.ExecContext(ctx,
		"INSERT INTO timer_events (id, room_id, user_id, action, elapsed_seconds_at_event, state_snapshot, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7)",
		uuid.New(), req.RoomID, req.UserID, req.Action, req.ElapsedSecondsAtEvent, snapshot, at,
	)
	return err
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTimerState(row scanner) (*models.RoomTimerState, error) {
	var state models.RoomTimerState
	var startTime, pauseTime sql.NullTime
	var sessionID, startedBy uuid.NullUUID

	if err := row.Scan(
		&state.RoomID,
		&state.IsRunning,
		&startTime,
		&pauseTime,
		&state.TotalPausedSeconds,
		&sessionID,
		&startedBy,
		&state.UpdatedAt,
	); err != nil {
		return nil, err
	}

	state.StartTime = sqlutil.FromSqlTime(startTime)
	state.PauseTime = sqlutil.FromSqlTime(pauseTime)
	state.SessionID = sqlutil.FromNullUUID(sessionID)
	state.StartedBy = sqlutil.FromNullUUID(startedBy)
	return &state, nil
}
