package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/meltforce/fitcircle/internal/models"
	"github.com/meltforce/fitcircle/internal/session"
)

// Compile-time check: *DB satisfies the tracker's persistence surface.
var _ session.Store = (*DB)(nil)

// InsertSession persists a new workout session snapshot.
func (db *DB) InsertSession(ctx context.Context, s *session.Session) error {
	progress, err := json.Marshal(s.Exercises)
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, workout_id, workout_title, start_time, end_time,
		 state, status, current_exercise, current_set, progress, total_duration,
		 notes, rating, difficulty, calories_burned)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		s.ID, s.UserID, s.WorkoutID, s.WorkoutTitle, s.StartTime, s.EndTime,
		string(s.State), s.State.Status(), s.CurrentExercise, s.CurrentSet, progress, s.TotalDuration,
		s.Notes, s.Rating, s.Difficulty, s.CaloriesBurned)
	if err != nil {
		// idx_sessions_one_open: a concurrent start already holds the
		// user's open-session slot.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &session.Error{Kind: session.ErrConflict, Message: "you already have an active workout session"}
		}
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// UpdateSession overwrites a session row with a fresh snapshot.
func (db *DB) UpdateSession(ctx context.Context, s *session.Session) error {
	progress, err := json.Marshal(s.Exercises)
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_sessions SET end_time = $2, state = $3, status = $4,
		 current_exercise = $5, current_set = $6, progress = $7, total_duration = $8,
		 notes = $9, rating = $10, difficulty = $11, calories_burned = $12, updated_at = NOW()
		 WHERE id = $1`,
		s.ID, s.EndTime, string(s.State), s.State.Status(),
		s.CurrentExercise, s.CurrentSet, progress, s.TotalDuration,
		s.Notes, s.Rating, s.Difficulty, s.CaloriesBurned)
	if err != nil {
		return fmt.Errorf("updating session %s: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating session %s: no such row", s.ID)
	}
	return nil
}

// FindActiveSession returns the user's in-progress or paused session, or
// nil when there is none.
func (db *DB) FindActiveSession(ctx context.Context, userID int) (*session.Session, error) {
	row := db.Pool.QueryRow(ctx,
		sessionSelect+` WHERE user_id = $1 AND status IN ('in-progress', 'paused')
		 ORDER BY start_time DESC LIMIT 1`, userID)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding active session: %w", err)
	}
	return s, nil
}

// GetSession returns one session owned by the user.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID, userID int) (*session.Session, error) {
	row := db.Pool.QueryRow(ctx, sessionSelect+` WHERE id = $1 AND user_id = $2`, id, userID)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return s, nil
}

// ListUnfinishedSessions returns every session that is still in progress or
// paused, across all users. Used to rebuild trackers at startup.
func (db *DB) ListUnfinishedSessions(ctx context.Context) ([]*session.Session, error) {
	rows, err := db.Pool.Query(ctx,
		sessionSelect+` WHERE status IN ('in-progress', 'paused') ORDER BY start_time ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing unfinished sessions: %w", err)
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SessionHistory returns the user's past sessions, newest first, with an
// optional coarse status filter (in-progress, paused, completed, cancelled).
func (db *DB) SessionHistory(ctx context.Context, userID, page, limit int, status string) ([]*session.Session, models.Pagination, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workout_sessions `+where, args...).Scan(&total); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("counting sessions: %w", err)
	}

	offset := (page - 1) * limit
	args = append(args, limit, offset)
	rows, err := db.Pool.Query(ctx,
		fmt.Sprintf(`%s %s ORDER BY start_time DESC LIMIT $%d OFFSET $%d`,
			sessionSelect, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("querying session history: %w", err)
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, models.Pagination{}, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, s)
	}
	return out, models.NewPagination(page, limit, total), rows.Err()
}

const sessionSelect = `SELECT id, user_id, workout_id, workout_title, start_time, end_time,
	 state, current_exercise, current_set, progress, total_duration,
	 notes, rating, difficulty, calories_burned
	 FROM workout_sessions`

func scanSession(row pgx.Row) (*session.Session, error) {
	var (
		s        session.Session
		state    string
		endTime  *time.Time
		progress []byte
	)
	err := row.Scan(&s.ID, &s.UserID, &s.WorkoutID, &s.WorkoutTitle, &s.StartTime, &endTime,
		&state, &s.CurrentExercise, &s.CurrentSet, &progress, &s.TotalDuration,
		&s.Notes, &s.Rating, &s.Difficulty, &s.CaloriesBurned)
	if err != nil {
		return nil, err
	}
	s.State = session.State(state)
	s.EndTime = endTime
	if err := json.Unmarshal(progress, &s.Exercises); err != nil {
		return nil, fmt.Errorf("decoding progress: %w", err)
	}
	return &s, nil
}
