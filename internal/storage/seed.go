package storage

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/meltforce/fitcircle/internal/models"
	"github.com/meltforce/fitcircle/internal/session"
)

// SeedWorkouts inserts the built-in workout catalog. Idempotent: entries
// carry fixed ids and existing rows are left untouched.
func (db *DB) SeedWorkouts(ctx context.Context, log *slog.Logger) error {
	var added int
	for i := range catalogWorkouts {
		inserted, err := db.InsertWorkout(ctx, &catalogWorkouts[i])
		if err != nil {
			return err
		}
		if inserted {
			added++
		}
	}
	if added > 0 {
		log.Info("workout catalog seeded", "added", added)
	}
	return nil
}

var catalogWorkouts = []models.Workout{
	{
		ID:          uuid.MustParse("7a1f0d3e-0001-4a7b-9c58-1b2f4d6e8a01"),
		Title:       "Morning Cardio Blast",
		Description: "High-energy cardio workout to start your day and burn calories efficiently.",
		Category:    "cardio",
		Difficulty:  "intermediate",
		DurationMin: 45,
		Calories:    450,
		Intensity:   "high",
		Exercises: []session.ExercisePlan{
			{Name: "Jumping Jacks", Sets: 3, Reps: "30 sec", Rest: "15 sec"},
			{Name: "Mountain Climbers", Sets: 3, Reps: "45 sec", Rest: "20 sec"},
			{Name: "Burpees", Sets: 3, Reps: "20 reps", Rest: "30 sec"},
			{Name: "High Knees", Sets: 3, Reps: "60 sec", Rest: "20 sec"},
		},
	},
	{
		ID:          uuid.MustParse("7a1f0d3e-0002-4a7b-9c58-1b2f4d6e8a02"),
		Title:       "Upper Body Strength",
		Description: "Comprehensive upper body workout targeting chest, back, shoulders, and arms.",
		Category:    "strength",
		Difficulty:  "intermediate",
		DurationMin: 60,
		Calories:    380,
		Intensity:   "medium",
		Exercises: []session.ExercisePlan{
			{Name: "Push-ups", Sets: 4, Reps: "12-15 reps", Rest: "90 sec"},
			{Name: "Pull-ups", Sets: 4, Reps: "8-10 reps", Rest: "120 sec"},
			{Name: "Dumbbell Rows", Sets: 3, Reps: "12 reps each arm", Rest: "60 sec"},
			{Name: "Shoulder Press", Sets: 3, Reps: "10 reps", Rest: "90 sec"},
			{Name: "Bicep Curls", Sets: 3, Reps: "15 reps", Rest: "60 sec"},
		},
	},
	{
		ID:          uuid.MustParse("7a1f0d3e-0003-4a7b-9c58-1b2f4d6e8a03"),
		Title:       "Yoga Flow for Flexibility",
		Description: "Gentle yoga sequence focusing on flexibility, balance, and mindfulness.",
		Category:    "flexibility",
		Difficulty:  "beginner",
		DurationMin: 30,
		Calories:    120,
		Intensity:   "low",
		Exercises: []session.ExercisePlan{
			{Name: "Sun Salutation A", Sets: 3, Reps: "Full sequence", Rest: "30 sec"},
			{Name: "Warrior Poses", Sets: 1, Reps: "Hold each pose 30 sec", Rest: "15 sec"},
			{Name: "Forward Folds", Sets: 1, Reps: "Hold 45 sec each", Rest: "20 sec"},
			{Name: "Savasana", Sets: 1, Reps: "5 minutes"},
		},
	},
	{
		ID:          uuid.MustParse("7a1f0d3e-0004-4a7b-9c58-1b2f4d6e8a04"),
		Title:       "HIIT Circuit Training",
		Description: "High-intensity intervals with short rest periods to maximize fat burning.",
		Category:    "hiit",
		Difficulty:  "advanced",
		DurationMin: 35,
		Calories:    520,
		Intensity:   "high",
		Exercises: []session.ExercisePlan{
			{Name: "Squat Jumps", Sets: 4, Reps: "30 sec", Rest: "15 sec"},
			{Name: "Push-up Burpees", Sets: 4, Reps: "45 sec", Rest: "20 sec"},
			{Name: "Mountain Climbers", Sets: 4, Reps: "30 sec", Rest: "15 sec"},
			{Name: "Plank Jacks", Sets: 4, Reps: "45 sec", Rest: "20 sec"},
		},
	},
	{
		ID:          uuid.MustParse("7a1f0d3e-0005-4a7b-9c58-1b2f4d6e8a05"),
		Title:       "Lower Body Power",
		Description: "Explosive lower body workout focusing on power, strength, and athletic performance.",
		Category:    "strength",
		Difficulty:  "advanced",
		DurationMin: 55,
		Calories:    420,
		Intensity:   "high",
		Exercises: []session.ExercisePlan{
			{Name: "Barbell Squats", Sets: 5, Reps: "5 reps", Rest: "180 sec"},
			{Name: "Deadlifts", Sets: 4, Reps: "6 reps", Rest: "180 sec"},
			{Name: "Box Jumps", Sets: 3, Reps: "8 reps", Rest: "90 sec"},
			{Name: "Lunges", Sets: 3, Reps: "12 reps each leg", Rest: "60 sec"},
		},
	},
	{
		ID:          uuid.MustParse("7a1f0d3e-0006-4a7b-9c58-1b2f4d6e8a06"),
		Title:       "Recovery Stretch",
		Description: "Light stretching and mobility work to aid recovery between intense workouts.",
		Category:    "recovery",
		Difficulty:  "beginner",
		DurationMin: 25,
		Calories:    80,
		Intensity:   "low",
		Exercises: []session.ExercisePlan{
			{Name: "Dynamic Stretching", Sets: 1, Reps: "10 reps each"},
			{Name: "Foam Rolling", Sets: 1, Reps: "5 min total"},
			{Name: "Static Stretches", Sets: 1, Reps: "Hold 30 sec each", Rest: "15 sec"},
			{Name: "Deep Breathing", Sets: 1, Reps: "5 minutes"},
		},
	},
}
