package storage

import (
	"context"
	"fmt"
	"time"
)

// ProgressStats summarizes a user's completed training.
type ProgressStats struct {
	Sessions         int        `json:"sessions"`
	TotalSeconds     int        `json:"total_seconds"`
	SetsCompleted    int        `json:"sets_completed"`
	RepsLogged       int        `json:"reps_logged"`
	CaloriesBurned   int        `json:"calories_burned"`
	StreakDays       int        `json:"streak_days"`
	LastWorkout      *time.Time `json:"last_workout,omitempty"`
	ActiveChallenges int        `json:"active_challenges"`
}

// UserStats aggregates completed-session totals for a user. Set and rep
// counts are read out of the stored progress JSON.
func (db *DB) UserStats(ctx context.Context, userID int) (*ProgressStats, error) {
	var s ProgressStats
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_duration), 0),
		       COALESCE(SUM(calories_burned), 0),
		       MAX(end_time)
		FROM workout_sessions
		WHERE user_id = $1 AND status = 'completed'`, userID).
		Scan(&s.Sessions, &s.TotalSeconds, &s.CaloriesBurned, &s.LastWorkout)
	if err != nil {
		return nil, fmt.Errorf("aggregating sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx, `
		SELECT COALESCE(COUNT(*), 0), COALESCE(SUM((st->>'reps')::int), 0)
		FROM workout_sessions ws,
		     jsonb_array_elements(ws.progress) ex,
		     jsonb_array_elements(ex->'sets') st
		WHERE ws.user_id = $1 AND ws.status = 'completed'
		  AND (st->>'completed')::bool`, userID).
		Scan(&s.SetsCompleted, &s.RepsLogged)
	if err != nil {
		return nil, fmt.Errorf("aggregating sets: %w", err)
	}

	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM challenge_participants p
		JOIN challenges c ON c.id = p.challenge_id
		WHERE p.user_id = $1 AND p.status = 'active'
		  AND c.is_active AND c.end_date >= NOW()`, userID).
		Scan(&s.ActiveChallenges)
	if err != nil {
		return nil, fmt.Errorf("counting challenges: %w", err)
	}

	s.StreakDays, err = db.workoutStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// workoutStreak counts consecutive calendar days ending today (or
// yesterday) with at least one completed session.
func (db *DB) workoutStreak(ctx context.Context, userID int) (int, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT DISTINCT end_time::date
		FROM workout_sessions
		WHERE user_id = $1 AND status = 'completed' AND end_time IS NOT NULL
		ORDER BY end_time::date DESC
		LIMIT 366`, userID)
	if err != nil {
		return 0, fmt.Errorf("querying workout days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return 0, fmt.Errorf("scanning workout day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(days) == 0 {
		return 0, nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	// A streak survives until a full day is missed.
	if gap := today.Sub(days[0]); gap > 48*time.Hour {
		return 0, nil
	}
	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) != 24*time.Hour {
			break
		}
		streak++
	}
	return streak, nil
}
