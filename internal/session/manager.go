package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence surface the manager writes session snapshots
// through. *storage.DB satisfies it.
type Store interface {
	InsertSession(ctx context.Context, s *Session) error
	UpdateSession(ctx context.Context, s *Session) error
	FindActiveSession(ctx context.Context, userID int) (*Session, error) // nil when none
	ListUnfinishedSessions(ctx context.Context) ([]*Session, error)
}

// Manager owns the live trackers: one per in-progress session, at most one
// per user. It serializes mutations per session and persists a snapshot
// after every successful transition; a rejected operation writes nothing.
// Persists are ordered per session: a timer-driven write that lost the race
// to a newer transition is dropped rather than regressing the stored row.
type Manager struct {
	store Store
	log   *slog.Logger

	mu     sync.Mutex
	byID   map[uuid.UUID]*Tracker
	byUser map[int]uuid.UUID
	gates  map[uuid.UUID]*persistGate
}

// persistGate serializes writes for one session and remembers the highest
// snapshot revision that has landed, so a stale snapshot cannot overwrite
// a newer one.
type persistGate struct {
	mu   sync.Mutex
	last int64
}

// NewManager creates a Manager backed by the given store.
func NewManager(store Store, log *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		log:    log,
		byID:   make(map[uuid.UUID]*Tracker),
		byUser: make(map[int]uuid.UUID),
		gates:  make(map[uuid.UUID]*persistGate),
	}
}

func (m *Manager) gate(id uuid.UUID) *persistGate {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.gates[id]
	if g == nil {
		g = &persistGate{}
		m.gates[id] = g
	}
	return g
}

// Restore rebuilds trackers for sessions that were in progress or paused
// when the process last stopped. Sessions persisted mid-rest come back
// active; the countdown is not resumed.
func (m *Manager) Restore(ctx context.Context) error {
	sessions, err := m.store.ListUnfinishedSessions(ctx)
	if err != nil {
		return fmt.Errorf("listing unfinished sessions: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sessions {
		tr := Resurrect(s, WithOnChange(m.persistAsync))
		m.byID[s.ID] = tr
		m.byUser[s.UserID] = s.ID
	}
	if len(sessions) > 0 {
		m.log.Info("restored workout sessions", "count", len(sessions))
	}
	return nil
}

// Start begins a new session for the user. Rejected with ErrConflict while
// the user already has a session in progress, paused, or resting.
func (m *Manager) Start(ctx context.Context, userID int, def WorkoutDefinition) (*Session, error) {
	tr, err := New(userID, def, WithOnChange(m.persistAsync))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if id, ok := m.byUser[userID]; ok {
		if existing := m.byID[id]; existing != nil && !existing.State().Terminal() {
			m.mu.Unlock()
			return nil, &Error{Kind: ErrConflict, Message: "you already have an active workout session"}
		}
		// A finished tracker that was never finalized; let it go.
		delete(m.byID, id)
		delete(m.byUser, userID)
	}
	m.mu.Unlock()

	// Existence check against persisted state covers sessions from before a
	// restart that Restore may have missed.
	if existing, err := m.store.FindActiveSession(ctx, userID); err != nil {
		return nil, fmt.Errorf("checking for active session: %w", err)
	} else if existing != nil {
		return nil, &Error{Kind: ErrConflict, Message: "you already have an active workout session"}
	}

	snap, err := tr.Start()
	if err != nil {
		return nil, err
	}
	if err := m.store.InsertSession(ctx, snap); err != nil {
		// The store reports a lost start race as ErrConflict; surface it
		// unwrapped so the caller sees the same contract as the optimistic
		// check above.
		if errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	m.mu.Lock()
	m.byID[snap.ID] = tr
	m.byUser[userID] = snap.ID
	m.mu.Unlock()

	g := m.gate(snap.ID)
	g.mu.Lock()
	g.last = snap.Revision
	g.mu.Unlock()
	return snap, nil
}

// Active returns the user's current session snapshot, or ErrNotFound.
func (m *Manager) Active(ctx context.Context, userID int) (*Session, error) {
	m.mu.Lock()
	id, ok := m.byUser[userID]
	tr := m.byID[id]
	m.mu.Unlock()
	if ok && tr != nil && !tr.State().Terminal() {
		return tr.Snapshot(), nil
	}
	s, err := m.store.FindActiveSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("finding active session: %w", err)
	}
	if s == nil {
		return nil, &Error{Kind: ErrNotFound, Message: "no active workout session found"}
	}
	return s, nil
}

// CompleteSet records a set on the user's session and persists the result.
func (m *Manager) CompleteSet(ctx context.Context, userID int, id uuid.UUID, exerciseIndex, setIndex int, res SetResult) (*Session, error) {
	tr, err := m.tracker(id, userID)
	if err != nil {
		return nil, err
	}
	snap, err := tr.CompleteSet(exerciseIndex, setIndex, res)
	if err != nil {
		return nil, err
	}
	return m.persist(ctx, snap)
}

// CompleteExercise force-completes an exercise on the user's session.
func (m *Manager) CompleteExercise(ctx context.Context, userID int, id uuid.UUID, exerciseIndex int, notes string) (*Session, error) {
	tr, err := m.tracker(id, userID)
	if err != nil {
		return nil, err
	}
	snap, err := tr.CompleteExercise(exerciseIndex, notes)
	if err != nil {
		return nil, err
	}
	return m.persist(ctx, snap)
}

// Pause freezes the user's session.
func (m *Manager) Pause(ctx context.Context, userID int, id uuid.UUID) (*Session, error) {
	return m.apply(ctx, userID, id, (*Tracker).Pause)
}

// Resume reactivates a paused session.
func (m *Manager) Resume(ctx context.Context, userID int, id uuid.UUID) (*Session, error) {
	return m.apply(ctx, userID, id, (*Tracker).Resume)
}

// SkipRest ends the rest countdown immediately.
func (m *Manager) SkipRest(ctx context.Context, userID int, id uuid.UUID) (*Session, error) {
	return m.apply(ctx, userID, id, (*Tracker).SkipRest)
}

// Complete finalizes the session with its completion metadata and releases
// the tracker.
func (m *Manager) Complete(ctx context.Context, userID int, id uuid.UUID, final FinalData) (*Session, error) {
	tr, err := m.tracker(id, userID)
	if err != nil {
		return nil, err
	}
	snap, err := tr.Complete(final)
	if err != nil {
		return nil, err
	}
	snap, err = m.persist(ctx, snap)
	if err != nil {
		return nil, err
	}
	m.evict(id, userID)
	return snap, nil
}

// Cancel aborts the session and releases the tracker. Partial progress is
// retained in storage.
func (m *Manager) Cancel(ctx context.Context, userID int, id uuid.UUID) (*Session, error) {
	tr, err := m.tracker(id, userID)
	if err != nil {
		return nil, err
	}
	snap, err := tr.Cancel()
	if err != nil {
		return nil, err
	}
	snap, err = m.persist(ctx, snap)
	if err != nil {
		return nil, err
	}
	m.evict(id, userID)
	return snap, nil
}

func (m *Manager) apply(ctx context.Context, userID int, id uuid.UUID, op func(*Tracker) (*Session, error)) (*Session, error) {
	tr, err := m.tracker(id, userID)
	if err != nil {
		return nil, err
	}
	snap, err := op(tr)
	if err != nil {
		return nil, err
	}
	return m.persist(ctx, snap)
}

func (m *Manager) tracker(id uuid.UUID, userID int) (*Tracker, error) {
	m.mu.Lock()
	tr := m.byID[id]
	m.mu.Unlock()
	if tr == nil || tr.UserID() != userID {
		return nil, &Error{Kind: ErrNotFound, Message: "active workout session not found"}
	}
	return tr, nil
}

func (m *Manager) persist(ctx context.Context, snap *Session) (*Session, error) {
	g := m.gate(snap.ID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if snap.Revision <= g.last {
		// A newer snapshot already landed.
		return snap, nil
	}
	if err := m.store.UpdateSession(ctx, snap); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}
	g.last = snap.Revision
	return snap, nil
}

// persistAsync writes a snapshot produced by a timer-driven transition. It
// goes through the same per-session gate as synchronous persists, so a
// rest-expiry write that raced behind a newer transition is dropped.
func (m *Manager) persistAsync(snap *Session) {
	g := m.gate(snap.ID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if snap.Revision <= g.last {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.UpdateSession(ctx, snap); err != nil {
		m.log.Error("failed to persist rest-complete transition", "session", snap.ID, "error", err)
		return
	}
	g.last = snap.Revision
}

func (m *Manager) evict(id uuid.UUID, userID int) {
	m.mu.Lock()
	delete(m.byID, id)
	delete(m.gates, id)
	if m.byUser[userID] == id {
		delete(m.byUser, userID)
	}
	m.mu.Unlock()
}
