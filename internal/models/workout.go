package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/fitcircle/internal/session"
)

// Workout is a catalog entry users can start a session from.
type Workout struct {
	ID          uuid.UUID              `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Difficulty  string                 `json:"difficulty,omitempty"`
	DurationMin int                    `json:"duration_min,omitempty"`
	Calories    int                    `json:"calories,omitempty"`
	Intensity   string                 `json:"intensity,omitempty"`
	Exercises   []session.ExercisePlan `json:"exercises"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Definition converts a catalog workout into the tracker's input.
func (w *Workout) Definition() session.WorkoutDefinition {
	return session.WorkoutDefinition{
		WorkoutID: w.ID.String(),
		Title:     w.Title,
		Exercises: w.Exercises,
	}
}
