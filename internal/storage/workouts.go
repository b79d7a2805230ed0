package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/fitcircle/internal/models"
)

// InsertWorkout adds a catalog workout. Returns true if inserted, false if
// the id already existed.
func (db *DB) InsertWorkout(ctx context.Context, w *models.Workout) (bool, error) {
	exercises, err := json.Marshal(w.Exercises)
	if err != nil {
		return false, fmt.Errorf("encoding exercises: %w", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO workouts (id, title, description, category, difficulty, duration_min, calories, intensity, exercises)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT DO NOTHING`,
		w.ID, w.Title, w.Description, w.Category, w.Difficulty,
		w.DurationMin, w.Calories, w.Intensity, exercises)
	if err != nil {
		return false, fmt.Errorf("inserting workout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// QueryWorkouts lists the catalog, optionally filtered by category and
// difficulty.
func (db *DB) QueryWorkouts(ctx context.Context, category, difficulty string) ([]models.Workout, error) {
	query := `SELECT id, title, description, category, difficulty, duration_min, calories, intensity, exercises, created_at
		 FROM workouts WHERE 1=1`
	var args []any
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if difficulty != "" {
		args = append(args, difficulty)
		query += fmt.Sprintf(" AND difficulty = $%d", len(args))
	}
	query += " ORDER BY title ASC"

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var out []models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// GetWorkout returns one catalog workout, or nil.
func (db *DB) GetWorkout(ctx context.Context, id uuid.UUID) (*models.Workout, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, title, description, category, difficulty, duration_min, calories, intensity, exercises, created_at
		 FROM workouts WHERE id = $1`, id)
	w, err := scanWorkout(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

func scanWorkout(row pgx.Row) (*models.Workout, error) {
	var (
		w         models.Workout
		exercises []byte
	)
	err := row.Scan(&w.ID, &w.Title, &w.Description, &w.Category, &w.Difficulty,
		&w.DurationMin, &w.Calories, &w.Intensity, &exercises, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(exercises, &w.Exercises); err != nil {
		return nil, fmt.Errorf("decoding exercises: %w", err)
	}
	return &w, nil
}
