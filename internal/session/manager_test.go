package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

// fakeStore is an in-memory Store for manager tests.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	inserts  int
	updates  int
	failNext error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*Session)}
}

func (f *fakeStore) takeFailure() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeStore) InsertSession(_ context.Context, s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.inserts++
	f.sessions[s.ID.String()] = s.Clone()
	return nil
}

func (f *fakeStore) UpdateSession(_ context.Context, s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.updates++
	f.sessions[s.ID.String()] = s.Clone()
	return nil
}

func (f *fakeStore) FindActiveSession(_ context.Context, userID int) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.UserID == userID && !s.State.Terminal() {
			return s.Clone(), nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListUnfinishedSessions(_ context.Context) ([]*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Session
	for _, s := range f.sessions {
		if !s.State.Terminal() {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func testManager() (*Manager, *fakeStore) {
	store := newFakeStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(store, log), store
}

// TestManagerStartPersists verifies that starting a session inserts a
// snapshot and that the active lookup serves it.
func TestManagerStartPersists(t *testing.T) {
	m, store := testManager()
	ctx := context.Background()

	snap, err := m.Start(ctx, 1, testDefinition())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if snap.State != StateActive {
		t.Errorf("state = %s, want active", snap.State)
	}
	if store.inserts != 1 {
		t.Errorf("inserts = %d, want 1", store.inserts)
	}

	active, err := m.Active(ctx, 1)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active.ID != snap.ID {
		t.Error("active session id mismatch")
	}
}

// TestManagerSecondStartConflicts verifies the one-in-progress-per-user
// rule: a second start fails with ErrConflict and the existing session is
// unaffected.
func TestManagerSecondStartConflicts(t *testing.T) {
	m, _ := testManager()
	ctx := context.Background()

	first, err := m.Start(ctx, 1, testDefinition())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Start(ctx, 1, testDefinition()); !errors.Is(err, ErrConflict) {
		t.Fatalf("second start: err = %v, want ErrConflict", err)
	}

	active, err := m.Active(ctx, 1)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active.ID != first.ID || active.State != StateActive {
		t.Error("existing session affected by rejected start")
	}

	// A different user is unaffected.
	if _, err := m.Start(ctx, 2, testDefinition()); err != nil {
		t.Errorf("other user start: %v", err)
	}
}

// TestManagerConflictCoversPausedAndResting verifies that paused and
// resting sessions also block a new start.
func TestManagerConflictCoversPausedAndResting(t *testing.T) {
	m, _ := testManager()
	ctx := context.Background()

	snap, err := m.Start(ctx, 1, testDefinition())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Pause(ctx, 1, snap.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if _, err := m.Start(ctx, 1, testDefinition()); !errors.Is(err, ErrConflict) {
		t.Errorf("start over paused: err = %v, want ErrConflict", err)
	}

	if _, err := m.Resume(ctx, 1, snap.ID); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if _, err := m.CompleteSet(ctx, 1, snap.ID, 0, 0, SetResult{Reps: 10}); err != nil {
		t.Fatalf("CompleteSet: %v", err)
	}
	if _, err := m.Start(ctx, 1, testDefinition()); !errors.Is(err, ErrConflict) {
		t.Errorf("start over resting: err = %v, want ErrConflict", err)
	}
}

// TestManagerPersistsEveryTransition verifies a snapshot update is written
// after each successful mutation and none after a rejected one.
func TestManagerPersistsEveryTransition(t *testing.T) {
	m, store := testManager()
	ctx := context.Background()

	snap, err := m.Start(ctx, 1, testDefinition())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.CompleteSet(ctx, 1, snap.ID, 0, 0, SetResult{Reps: 10}); err != nil {
		t.Fatalf("CompleteSet: %v", err)
	}
	if _, err := m.SkipRest(ctx, 1, snap.ID); err != nil {
		t.Fatalf("SkipRest: %v", err)
	}
	if store.updates != 2 {
		t.Errorf("updates = %d, want 2", store.updates)
	}

	// Rejected operation writes nothing.
	if _, err := m.SkipRest(ctx, 1, snap.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("skip while active: err = %v, want ErrInvalidState", err)
	}
	if store.updates != 2 {
		t.Errorf("updates after rejection = %d, want 2", store.updates)
	}
}

// TestManagerCompleteReleasesUser verifies that completing a session frees
// the user to start another.
func TestManagerCompleteReleasesUser(t *testing.T) {
	m, _ := testManager()
	ctx := context.Background()

	def := WorkoutDefinition{
		WorkoutID: "w1", Title: "Quick",
		Exercises: []ExercisePlan{{Name: "Squat", Sets: 1}},
	}
	snap, err := m.Start(ctx, 1, def)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.CompleteSet(ctx, 1, snap.ID, 0, 0, SetResult{Reps: 5}); err != nil {
		t.Fatalf("CompleteSet: %v", err)
	}
	final, err := m.Complete(ctx, 1, snap.ID, FinalData{Rating: 5})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if final.State != StateCompleted {
		t.Errorf("state = %s, want completed", final.State)
	}

	if _, err := m.Active(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Active after complete: err = %v, want ErrNotFound", err)
	}
	if _, err := m.Start(ctx, 1, def); err != nil {
		t.Errorf("start after complete: %v", err)
	}
}

// TestManagerCancelReleasesUser verifies cancel frees the user and the
// cancelled snapshot is persisted.
func TestManagerCancelReleasesUser(t *testing.T) {
	m, store := testManager()
	ctx := context.Background()

	snap, err := m.Start(ctx, 1, testDefinition())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancelled, err := m.Cancel(ctx, 1, snap.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.State != StateCancelled {
		t.Errorf("state = %s, want cancelled", cancelled.State)
	}
	stored := store.sessions[snap.ID.String()]
	if stored == nil || stored.State != StateCancelled {
		t.Error("cancelled snapshot not persisted")
	}
	if _, err := m.Start(ctx, 1, testDefinition()); err != nil {
		t.Errorf("start after cancel: %v", err)
	}
}

// TestManagerWrongUser verifies another user cannot mutate a session they
// do not own.
func TestManagerWrongUser(t *testing.T) {
	m, _ := testManager()
	ctx := context.Background()

	snap, err := m.Start(ctx, 1, testDefinition())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.CompleteSet(ctx, 2, snap.ID, 0, 0, SetResult{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong user: err = %v, want ErrNotFound", err)
	}
}

// TestManagerRestore verifies trackers are rebuilt from persisted state and
// keep blocking new starts after a restart.
func TestManagerRestore(t *testing.T) {
	m, store := testManager()
	ctx := context.Background()

	snap, err := m.Start(ctx, 1, testDefinition())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.CompleteSet(ctx, 1, snap.ID, 0, 0, SetResult{Reps: 10}); err != nil {
		t.Fatalf("CompleteSet: %v", err)
	}

	// Simulate a restart with the same store.
	m2 := NewManager(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := m2.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	active, err := m2.Active(ctx, 1)
	if err != nil {
		t.Fatalf("Active after restore: %v", err)
	}
	if active.ID != snap.ID {
		t.Error("restored session id mismatch")
	}
	if active.State != StateActive {
		t.Errorf("restored state = %s, want active (resting does not survive restart)", active.State)
	}
	if _, err := m2.Start(ctx, 1, testDefinition()); !errors.Is(err, ErrConflict) {
		t.Errorf("start after restore: err = %v, want ErrConflict", err)
	}

	// The restored tracker accepts the next set at the restored position.
	if _, err := m2.CompleteSet(ctx, 1, snap.ID, 0, 1, SetResult{Reps: 8}); err != nil {
		t.Errorf("CompleteSet after restore: %v", err)
	}
}

// TestManagerInsertFailureDoesNotRegister verifies a failed insert leaves
// no tracker behind, so the user can retry.
func TestManagerInsertFailureDoesNotRegister(t *testing.T) {
	m, store := testManager()
	ctx := context.Background()

	store.failNext = errors.New("db down")
	if _, err := m.Start(ctx, 1, testDefinition()); err == nil {
		t.Fatal("expected insert failure")
	}
	if _, err := m.Start(ctx, 1, testDefinition()); err != nil {
		t.Errorf("retry after failed insert: %v", err)
	}
}

// TestManagerLateTimerWriteDoesNotRegress verifies persist ordering: a
// rest-expiry snapshot that lost the race to a newer transition is dropped
// rather than overwriting it in storage. Without the ordering gate the
// store could end on "active" while the tracker was paused.
func TestManagerLateTimerWriteDoesNotRegress(t *testing.T) {
	m, store := testManager()
	ctx := context.Background()

	snap, err := m.Start(ctx, 1, testDefinition())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.CompleteSet(ctx, 1, snap.ID, 0, 0, SetResult{Reps: 10}); err != nil {
		t.Fatalf("CompleteSet: %v", err)
	}
	active, err := m.SkipRest(ctx, 1, snap.ID)
	if err != nil {
		t.Fatalf("SkipRest: %v", err)
	}
	if _, err := m.Pause(ctx, 1, snap.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	updates := store.updates

	// Replay the older active snapshot as if its timer-driven write only
	// arrived now, after the pause was already persisted.
	m.persistAsync(active)

	stored := store.sessions[snap.ID.String()]
	if stored == nil {
		t.Fatal("session not in store")
	}
	if stored.State != StatePaused {
		t.Fatalf("stored state = %s, want paused", stored.State)
	}
	if store.updates != updates {
		t.Errorf("updates = %d, want %d (stale write must be dropped)", store.updates, updates)
	}
}

// TestManagerStartLostRaceSurfacesConflict verifies that when two starts
// race past the in-memory check and the store rejects the second insert as
// a conflict, the caller sees ErrConflict rather than an opaque failure.
func TestManagerStartLostRaceSurfacesConflict(t *testing.T) {
	m, store := testManager()
	ctx := context.Background()

	store.failNext = &Error{Kind: ErrConflict, Message: "you already have an active workout session"}
	if _, err := m.Start(ctx, 1, testDefinition()); !errors.Is(err, ErrConflict) {
		t.Fatalf("start: err = %v, want ErrConflict", err)
	}
	if _, err := m.Active(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Error("rejected start left a tracker registered")
	}
	if _, err := m.Start(ctx, 1, testDefinition()); err != nil {
		t.Errorf("retry after lost race: %v", err)
	}
}
