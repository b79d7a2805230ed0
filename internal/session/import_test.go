package session

import (
	"errors"
	"testing"
	"time"
)

// TestImportCompleted verifies that an imported session arrives fully
// completed, with every planned set recorded and the duration derived
// from the supplied interval.
func TestImportCompleted(t *testing.T) {
	start := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	s, err := ImportCompleted(7, testDefinition(), start, end, FinalData{
		Notes:          "logged offline",
		Rating:         4,
		CaloriesBurned: 310,
	})
	if err != nil {
		t.Fatalf("ImportCompleted: %v", err)
	}

	if s.State != StateCompleted {
		t.Errorf("state = %s, want completed", s.State)
	}
	if s.UserID != 7 {
		t.Errorf("user id = %d, want 7", s.UserID)
	}
	if s.TotalDuration != 45*60 {
		t.Errorf("total duration = %d, want %d", s.TotalDuration, 45*60)
	}
	if s.EndTime == nil || !s.EndTime.Equal(end) {
		t.Errorf("end time = %v, want %v", s.EndTime, end)
	}
	if s.Rating != 4 || s.Notes != "logged offline" || s.CaloriesBurned != 310 {
		t.Errorf("metadata not recorded: rating=%d notes=%q calories=%v", s.Rating, s.Notes, s.CaloriesBurned)
	}
	for i, ex := range s.Exercises {
		if !ex.Completed {
			t.Errorf("exercise %d not completed", i)
		}
		for j, set := range ex.Sets {
			if !set.Completed {
				t.Errorf("exercise %d set %d not completed", i, j)
			}
		}
	}
}

// TestImportCompletedValidation verifies the import rejects a bad
// definition, reversed times and an out-of-range rating.
func TestImportCompletedValidation(t *testing.T) {
	start := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	cases := []struct {
		name  string
		def   WorkoutDefinition
		start time.Time
		end   time.Time
		final FinalData
	}{
		{"no exercises", WorkoutDefinition{WorkoutID: "w1", Title: "Empty"}, start, end, FinalData{}},
		{"zero start", testDefinition(), time.Time{}, end, FinalData{}},
		{"end before start", testDefinition(), end, start, FinalData{}},
		{"rating out of range", testDefinition(), start, end, FinalData{Rating: 9}},
		{"bad difficulty", testDefinition(), start, end, FinalData{Difficulty: "brutal"}},
	}
	for _, tc := range cases {
		if _, err := ImportCompleted(1, tc.def, tc.start, tc.end, tc.final); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: err = %v, want validation error", tc.name, err)
		}
	}
}
