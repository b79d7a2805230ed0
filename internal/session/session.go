// Package session implements the workout session tracker: a single user's
// attempt at a workout, driven through its exercise/set progression with
// strict sequential advancement, pause/resume, and rest countdowns.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the tracker's state machine position.
type State string

const (
	StateReady     State = "ready"
	StateActive    State = "active"
	StatePaused    State = "paused"
	StateResting   State = "resting"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Status maps the machine state to the coarse persisted status used for
// history filtering: in-progress, paused, completed, cancelled.
func (s State) Status() string {
	switch s {
	case StateActive, StateResting, StateReady:
		return "in-progress"
	case StatePaused:
		return "paused"
	default:
		return string(s)
	}
}

// Session is the persisted document for one workout attempt.
type Session struct {
	ID           uuid.UUID  `json:"id"`
	UserID       int        `json:"user_id"`
	WorkoutID    string     `json:"workout_id"`
	WorkoutTitle string     `json:"workout_title"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	State        State      `json:"state"`

	CurrentExercise int                `json:"current_exercise_index"`
	CurrentSet      int                `json:"current_set_index"`
	Exercises       []ExerciseProgress `json:"exercise_progress"`

	// RestRemaining is the rest countdown in whole seconds, populated on
	// snapshots while resting. Zero otherwise.
	RestRemaining int `json:"rest_remaining,omitempty"`

	// Elapsed is wall-clock seconds since start, populated on snapshots
	// once the session has begun. Paused intervals are not subtracted.
	Elapsed int `json:"elapsed,omitempty"`

	// Revision orders snapshots of one session: assigned under the tracker
	// mutex, strictly increasing per transition. Not persisted.
	Revision int64 `json:"-"`

	// TotalDuration is endTime − startTime in seconds once the session has
	// ended. Paused intervals are not subtracted.
	TotalDuration int `json:"total_duration"`

	// Completion metadata, set by Complete.
	Notes          string  `json:"notes,omitempty"`
	Rating         int     `json:"rating,omitempty"`
	Difficulty     string  `json:"difficulty,omitempty"`
	CaloriesBurned float64 `json:"calories_burned,omitempty"`
}

// ExerciseProgress tracks one exercise of the session.
type ExerciseProgress struct {
	ExerciseIndex int         `json:"exercise_index"`
	ExerciseName  string      `json:"exercise_name"`
	Rest          string      `json:"rest,omitempty"` // planned rest, e.g. "60 sec"
	Sets          []SetRecord `json:"sets"`
	Completed     bool        `json:"completed"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	Notes         string      `json:"notes,omitempty"`
}

// SetRecord is one logged set within an exercise.
type SetRecord struct {
	SetNumber   int        `json:"set_number"`
	Reps        int        `json:"reps"`
	Weight      float64    `json:"weight"`
	Duration    int        `json:"duration"`
	RestTime    int        `json:"rest_time"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SetResult carries the measurements recorded when a set is completed.
// Missing inputs arrive as zero values; the tracker logs them as-is rather
// than rejecting incomplete data.
type SetResult struct {
	Reps     int     `json:"reps"`
	Weight   float64 `json:"weight"`
	Duration int     `json:"duration"`
	RestTime int     `json:"rest_time"`
}

// FinalData is the completion metadata attached when a workout is finished.
type FinalData struct {
	Notes          string  `json:"notes"`
	Rating         int     `json:"rating"`
	Difficulty     string  `json:"difficulty"`
	CaloriesBurned float64 `json:"calories_burned"`
}

// ExercisePlan is one exercise of a workout definition.
type ExercisePlan struct {
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps string `json:"reps,omitempty"`
	Rest string `json:"rest,omitempty"`
}

// WorkoutDefinition is the collaborator-supplied workout to execute.
type WorkoutDefinition struct {
	WorkoutID string         `json:"workout_id"`
	Title     string         `json:"title"`
	Exercises []ExercisePlan `json:"exercises"`
}

// Validate checks the required start fields.
func (d WorkoutDefinition) Validate() error {
	if d.WorkoutID == "" {
		return &Error{Kind: ErrValidation, Message: "workout id is required"}
	}
	if d.Title == "" {
		return &Error{Kind: ErrValidation, Message: "workout title is required"}
	}
	if len(d.Exercises) == 0 {
		return &Error{Kind: ErrValidation, Message: "at least one exercise is required"}
	}
	for i, ex := range d.Exercises {
		if ex.Name == "" {
			return &Error{Kind: ErrValidation, Message: fmt.Sprintf("exercise %d has no name", i)}
		}
	}
	return nil
}

// newProgress builds the per-exercise/per-set skeleton from a definition.
// A plan with no set count gets one set.
func newProgress(def WorkoutDefinition) []ExerciseProgress {
	progress := make([]ExerciseProgress, len(def.Exercises))
	for i, ex := range def.Exercises {
		sets := ex.Sets
		if sets < 1 {
			sets = 1
		}
		records := make([]SetRecord, sets)
		for j := range records {
			records[j] = SetRecord{SetNumber: j + 1}
		}
		progress[i] = ExerciseProgress{
			ExerciseIndex: i,
			ExerciseName:  ex.Name,
			Rest:          ex.Rest,
			Sets:          records,
		}
	}
	return progress
}

// ImportCompleted builds an already-finished session from an externally
// logged workout. Every planned set is recorded as completed at the end
// time; TotalDuration follows the usual endTime − startTime rule.
func ImportCompleted(userID int, def WorkoutDefinition, start, end time.Time, final FinalData) (*Session, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		return nil, &Error{Kind: ErrValidation, Message: "start and end times are required"}
	}
	if end.Before(start) {
		return nil, &Error{Kind: ErrValidation, Message: "end time precedes start time"}
	}
	if final.Rating < 0 || final.Rating > 5 {
		return nil, &Error{Kind: ErrValidation, Message: "rating must be between 1 and 5"}
	}
	switch final.Difficulty {
	case "", "too-easy", "just-right", "too-hard":
	default:
		return nil, &Error{Kind: ErrValidation, Message: "difficulty must be too-easy, just-right or too-hard"}
	}

	s := &Session{
		ID:              uuid.New(),
		UserID:          userID,
		WorkoutID:       def.WorkoutID,
		WorkoutTitle:    def.Title,
		StartTime:       start,
		EndTime:         &end,
		State:           StateCompleted,
		Exercises:       newProgress(def),
		TotalDuration:   int(end.Sub(start).Seconds()),
		Elapsed:         int(end.Sub(start).Seconds()),
		Notes:           final.Notes,
		Rating:          final.Rating,
		Difficulty:      final.Difficulty,
		CaloriesBurned:  final.CaloriesBurned,
		CurrentExercise: len(def.Exercises) - 1,
	}
	for i := range s.Exercises {
		ex := &s.Exercises[i]
		for j := range ex.Sets {
			ex.Sets[j].Completed = true
			ex.Sets[j].CompletedAt = &end
		}
		ex.Completed = true
		ex.CompletedAt = &end
	}
	s.CurrentSet = len(s.Exercises[len(s.Exercises)-1].Sets) - 1
	return s, nil
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Exercises = make([]ExerciseProgress, len(s.Exercises))
	for i, ex := range s.Exercises {
		exCp := ex
		exCp.Sets = make([]SetRecord, len(ex.Sets))
		copy(exCp.Sets, ex.Sets)
		cp.Exercises[i] = exCp
	}
	return &cp
}
