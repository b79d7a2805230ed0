package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/fitcircle/internal/session"
)

// memStore is an in-memory session.Store for handler tests.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*session.Session)}
}

func (m *memStore) InsertSession(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID.String()] = s.Clone()
	return nil
}

func (m *memStore) UpdateSession(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID.String()]; !ok {
		return fmt.Errorf("no such session %s", s.ID)
	}
	m.sessions[s.ID.String()] = s.Clone()
	return nil
}

func (m *memStore) FindActiveSession(ctx context.Context, userID int) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && !s.State.Terminal() {
			return s.Clone(), nil
		}
	}
	return nil, nil
}

func (m *memStore) ListUnfinishedSessions(ctx context.Context) ([]*session.Session, error) {
	return nil, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	log := slog.Default()
	s := &Server{
		ids:      &fakeIdentity{tokens: map[string]int{"tok-1": 1, "tok-2": 2}},
		sessions: session.NewManager(newMemStore(), log),
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

func doJSON(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("{}")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

const startBody = `{"workout":{"workout_id":"full-body-1","title":"Full Body Burn","exercises":[
	{"name":"Push-ups","sets":2,"reps":"15","rest":"30 sec"},
	{"name":"Squats","sets":1,"reps":"20","rest":"60 sec"}]}}`

// TestStartSessionEndpoint verifies that POST /sessions/start creates a
// session and returns its initial snapshot.
func TestStartSessionEndpoint(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", "tok-1", startBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var snap session.Session
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if snap.State != session.StateActive {
		t.Errorf("state = %q, want %q", snap.State, session.StateActive)
	}
	if len(snap.Exercises) != 2 {
		t.Errorf("exercises = %d, want 2", len(snap.Exercises))
	}
}

// TestStartSessionConflict verifies that a second start for the same user
// returns 409 while the first session is still running.
func TestStartSessionConflict(t *testing.T) {
	s := testServer(t)

	if rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", "tok-1", startBody); rec.Code != http.StatusCreated {
		t.Fatalf("first start status = %d, want 201", rec.Code)
	}
	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", "tok-1", startBody)
	if rec.Code != http.StatusConflict {
		t.Errorf("second start status = %d, want 409", rec.Code)
	}

	// Another user is unaffected.
	if rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", "tok-2", startBody); rec.Code != http.StatusCreated {
		t.Errorf("other user start status = %d, want 201", rec.Code)
	}
}

// TestStartSessionValidation verifies that a workout without exercises is
// rejected with 400.
func TestStartSessionValidation(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", "tok-1",
		`{"workout":{"workout_id":"w1","title":"Empty","exercises":[]}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

// TestCompleteSetEndpoint verifies the complete-set flow over HTTP,
// including the 422 on an out-of-order set and 404 on a foreign session.
func TestCompleteSetEndpoint(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", "tok-1", startBody)
	var snap session.Session
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	base := "/api/v1/sessions/" + snap.ID.String()

	rec = doJSON(t, s, http.MethodPut, base+"/exercises/0/sets/0", "tok-1", `{"reps":15}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete-set status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.State != session.StateResting {
		t.Errorf("state = %q, want %q", snap.State, session.StateResting)
	}
	if !snap.Exercises[0].Sets[0].Completed {
		t.Error("first set not marked completed")
	}

	// Replaying the same set is out of order now.
	rec = doJSON(t, s, http.MethodPut, base+"/exercises/0/sets/0", "tok-1", `{"reps":15}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("replay status = %d, want 422", rec.Code)
	}

	// A different user cannot touch this session.
	rec = doJSON(t, s, http.MethodPut, base+"/exercises/0/sets/0", "tok-2", `{"reps":15}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign user status = %d, want 404", rec.Code)
	}
}

// TestPauseResumeEndpoints verifies pause and resume transitions over HTTP
// and the 422 for resuming a session that is not paused.
func TestPauseResumeEndpoints(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", "tok-1", startBody)
	var snap session.Session
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	base := "/api/v1/sessions/" + snap.ID.String()

	if rec := doJSON(t, s, http.MethodPut, base+"/resume", "tok-1", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("resume active status = %d, want 422", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPut, base+"/pause", "tok-1", ""); rec.Code != http.StatusOK {
		t.Errorf("pause status = %d, want 200", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPut, base+"/resume", "tok-1", ""); rec.Code != http.StatusOK {
		t.Errorf("resume status = %d, want 200", rec.Code)
	}
}

// TestActiveSessionEndpoint verifies GET /sessions/active returns the
// running session, and 404 once it is cancelled.
func TestActiveSessionEndpoint(t *testing.T) {
	s := testServer(t)

	if rec := doJSON(t, s, http.MethodGet, "/api/v1/sessions/active", "tok-1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("active with no session status = %d, want 404", rec.Code)
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", "tok-1", startBody)
	var snap session.Session
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}

	if rec := doJSON(t, s, http.MethodGet, "/api/v1/sessions/active", "tok-1", ""); rec.Code != http.StatusOK {
		t.Errorf("active status = %d, want 200", rec.Code)
	}

	base := "/api/v1/sessions/" + snap.ID.String()
	if rec := doJSON(t, s, http.MethodDelete, base, "tok-1", ""); rec.Code != http.StatusOK {
		t.Errorf("cancel status = %d, want 200", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/api/v1/sessions/active", "tok-1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("active after cancel status = %d, want 404", rec.Code)
	}
}

// TestCompleteSessionEndpoint verifies force-completion with metadata and
// the 400 on an out-of-range rating.
func TestCompleteSessionEndpoint(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", "tok-1", startBody)
	var snap session.Session
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	base := "/api/v1/sessions/" + snap.ID.String()

	if rec := doJSON(t, s, http.MethodPut, base+"/complete", "tok-1",
		`{"rating":9}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad rating status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, base+"/complete", "tok-1",
		`{"notes":"great","rating":5,"difficulty":"just-right"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.State != session.StateCompleted {
		t.Errorf("state = %q, want %q", snap.State, session.StateCompleted)
	}
	if snap.Rating != 5 || snap.Notes != "great" {
		t.Errorf("metadata not recorded: rating=%d notes=%q", snap.Rating, snap.Notes)
	}
}

// TestSessionEndpointsRequireAuth verifies the session routes sit behind
// the auth middleware.
func TestSessionEndpointsRequireAuth(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", "", startBody)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// TestHealthEndpoint verifies the unauthenticated health check.
func TestHealthEndpoint(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
