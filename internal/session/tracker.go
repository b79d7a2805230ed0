package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. Injectable for tests.
type Clock func() time.Time

// Tracker drives one session through its exercise/set progression. All
// methods are safe for concurrent use; transitions are serialized by a
// per-tracker mutex and applied in call order.
type Tracker struct {
	mu        sync.Mutex
	now       Clock
	s         *Session
	rest      *restTask
	finalized bool
	rev       int64

	// onChange is invoked with a snapshot after a timer-driven transition
	// (rest countdown reaching zero). Called outside the tracker lock.
	onChange func(*Session)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the tracker's time source.
func WithClock(c Clock) Option {
	return func(t *Tracker) { t.now = c }
}

// WithOnChange registers a callback for timer-driven transitions.
func WithOnChange(fn func(*Session)) Option {
	return func(t *Tracker) { t.onChange = fn }
}

// New validates the workout definition and returns a tracker in the ready
// state. Start must be called before any progression.
func New(userID int, def WorkoutDefinition, opts ...Option) (*Tracker, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	t := &Tracker{
		now: time.Now,
		s: &Session{
			ID:           uuid.New(),
			UserID:       userID,
			WorkoutID:    def.WorkoutID,
			WorkoutTitle: def.Title,
			State:        StateReady,
			Exercises:    newProgress(def),
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Resurrect rebuilds a tracker from a persisted snapshot. Sessions that were
// resting when persisted come back active; the countdown is not resumed.
func Resurrect(s *Session, opts ...Option) *Tracker {
	cp := s.Clone()
	cp.RestRemaining = 0
	if cp.State == StateResting {
		cp.State = StateActive
	}
	t := &Tracker{now: time.Now, s: cp}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// UserID returns the owning user.
func (t *Tracker) UserID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.s.UserID
}

// ID returns the session id.
func (t *Tracker) ID() uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.s.ID
}

// State returns the current machine state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.s.State
}

// Snapshot returns a deep copy of the session document, with the rest
// countdown remaining filled in while resting.
func (t *Tracker) Snapshot() *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() *Session {
	t.rev++
	cp := t.s.Clone()
	cp.Revision = t.rev
	cp.Elapsed = t.elapsedLocked()
	cp.RestRemaining = 0
	if t.s.State == StateResting && t.rest != nil {
		if remaining := t.rest.deadline.Sub(t.now()); remaining > 0 {
			cp.RestRemaining = int((remaining + time.Second - 1) / time.Second)
		}
	}
	return cp
}

// Elapsed returns wall-clock seconds since start (or the final total once
// the session has ended). Paused intervals are not subtracted.
func (t *Tracker) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

func (t *Tracker) elapsedLocked() int {
	if t.s.EndTime != nil {
		return t.s.TotalDuration
	}
	if t.s.State == StateReady {
		return 0
	}
	return int(t.now().Sub(t.s.StartTime).Seconds())
}

// Start transitions ready → active, recording the start time.
func (t *Tracker) Start() (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.s.State != StateReady {
		return nil, t.badState("start")
	}
	t.s.StartTime = t.now()
	t.s.State = StateActive
	return t.snapshotLocked(), nil
}

// CompleteSet records the current set's measurements and advances the
// position. Only the tracker's current exercise/set may be completed; the
// progression is strictly sequential.
func (t *Tracker) CompleteSet(exerciseIndex, setIndex int, res SetResult) (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.s.State != StateActive {
		return nil, t.badState("complete set")
	}
	if exerciseIndex < 0 || exerciseIndex >= len(t.s.Exercises) {
		return nil, &Error{Kind: ErrNotFound, Message: fmt.Sprintf("exercise %d does not exist", exerciseIndex)}
	}
	ex := &t.s.Exercises[exerciseIndex]
	if setIndex < 0 || setIndex >= len(ex.Sets) {
		return nil, &Error{Kind: ErrNotFound, Message: fmt.Sprintf("set %d does not exist in exercise %d", setIndex, exerciseIndex)}
	}
	if exerciseIndex != t.s.CurrentExercise || setIndex != t.s.CurrentSet {
		return nil, &Error{
			Kind: ErrInvalidState,
			Message: fmt.Sprintf("out-of-order completion: current position is exercise %d set %d",
				t.s.CurrentExercise, t.s.CurrentSet),
		}
	}

	now := t.now()
	set := &ex.Sets[setIndex]
	set.Reps = res.Reps
	set.Weight = res.Weight
	set.Duration = res.Duration
	set.RestTime = res.RestTime
	set.Completed = true
	set.CompletedAt = &now

	if setIndex < len(ex.Sets)-1 {
		t.s.CurrentSet++
		t.enterResting(ex.Rest)
		return t.snapshotLocked(), nil
	}

	// Last set of the exercise.
	ex.Completed = true
	ex.CompletedAt = &now
	t.advanceExercise(ex.Rest, now)
	return t.snapshotLocked(), nil
}

// CompleteExercise force-completes an exercise without requiring every
// planned set. This is a deliberate override of the per-set sequencing:
// unfinished set records are left as-is, not back-filled.
func (t *Tracker) CompleteExercise(exerciseIndex int, notes string) (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.s.State != StateActive && t.s.State != StateResting {
		return nil, t.badState("complete exercise")
	}
	if exerciseIndex < 0 || exerciseIndex >= len(t.s.Exercises) {
		return nil, &Error{Kind: ErrNotFound, Message: fmt.Sprintf("exercise %d does not exist", exerciseIndex)}
	}
	if exerciseIndex != t.s.CurrentExercise {
		return nil, &Error{
			Kind:    ErrInvalidState,
			Message: fmt.Sprintf("out-of-order completion: current exercise is %d", t.s.CurrentExercise),
		}
	}

	t.stopRest()
	now := t.now()
	ex := &t.s.Exercises[exerciseIndex]
	ex.Completed = true
	ex.CompletedAt = &now
	if notes != "" {
		ex.Notes = notes
	}
	t.advanceExercise(ex.Rest, now)
	return t.snapshotLocked(), nil
}

// Pause freezes elapsed-time accrual. Valid only while active.
func (t *Tracker) Pause() (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.s.State != StateActive {
		return nil, t.badState("pause")
	}
	t.s.State = StatePaused
	return t.snapshotLocked(), nil
}

// Resume returns a paused session to active. Indices and progress data are
// untouched.
func (t *Tracker) Resume() (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.s.State != StatePaused {
		return nil, t.badState("resume")
	}
	t.s.State = StateActive
	return t.snapshotLocked(), nil
}

// SkipRest forces the rest countdown to zero and returns to active.
func (t *Tracker) SkipRest() (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.s.State != StateResting {
		return nil, t.badState("skip rest")
	}
	t.stopRest()
	t.s.State = StateActive
	return t.snapshotLocked(), nil
}

// Complete attaches completion metadata and finalizes the session. Valid
// once the last set of the last exercise is done, or as a force-complete
// from any non-terminal running state. Replays are rejected.
func (t *Tracker) Complete(final FinalData) (*Session, error) {
	if final.Rating < 0 || final.Rating > 5 {
		return nil, &Error{Kind: ErrValidation, Message: "rating must be between 1 and 5"}
	}
	switch final.Difficulty {
	case "", "too-easy", "just-right", "too-hard":
	default:
		return nil, &Error{Kind: ErrValidation, Message: "difficulty must be too-easy, just-right or too-hard"}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finalized || t.s.State == StateCancelled || t.s.State == StateReady {
		return nil, t.badState("complete")
	}
	if t.s.State != StateCompleted {
		// Force-complete from active/paused/resting.
		t.stopRest()
		t.finish(t.now())
	}
	if final.Notes != "" {
		t.s.Notes = final.Notes
	}
	if final.Rating != 0 {
		t.s.Rating = final.Rating
	}
	if final.Difficulty != "" {
		t.s.Difficulty = final.Difficulty
	}
	if final.CaloriesBurned != 0 {
		t.s.CaloriesBurned = final.CaloriesBurned
	}
	t.finalized = true
	return t.snapshotLocked(), nil
}

// Cancel aborts the session from active, paused or resting. Partial
// progress is retained for history.
func (t *Tracker) Cancel() (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.s.State {
	case StateActive, StatePaused, StateResting:
	default:
		return nil, t.badState("cancel")
	}
	t.stopRest()
	now := t.now()
	t.s.EndTime = &now
	t.s.TotalDuration = int(now.Sub(t.s.StartTime).Seconds())
	t.s.State = StateCancelled
	t.finalized = true
	return t.snapshotLocked(), nil
}

// advanceExercise moves past a completed exercise: on to the next one (via
// a rest interval) or to the completed state if it was the last. The rest
// countdown is armed from the rest string of the exercise just finished,
// matching the observed client behavior.
func (t *Tracker) advanceExercise(restStr string, now time.Time) {
	if t.s.CurrentExercise < len(t.s.Exercises)-1 {
		t.s.CurrentExercise++
		t.s.CurrentSet = 0
		t.enterResting(restStr)
		return
	}
	t.finish(now)
}

// finish performs the terminal advance to completed. totalDuration is
// wall-clock endTime − startTime; paused intervals are deliberately not
// subtracted.
func (t *Tracker) finish(now time.Time) {
	t.s.EndTime = &now
	t.s.TotalDuration = int(now.Sub(t.s.StartTime).Seconds())
	t.s.State = StateCompleted
}

func (t *Tracker) badState(op string) error {
	return &Error{Kind: ErrInvalidState, Message: fmt.Sprintf("cannot %s a %s session", op, t.s.State)}
}
