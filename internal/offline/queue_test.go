package offline

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// TestEnqueueAndPending verifies entries round-trip through the queue in
// insertion order.
func TestEnqueueAndPending(t *testing.T) {
	q, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()

	if ok, err := q.Enqueue(KindPost, map[string]string{"content": "leg day done"}); err != nil || !ok {
		t.Fatalf("enqueue post: ok=%v err=%v", ok, err)
	}
	if ok, err := q.Enqueue(KindCheckin, checkinPayload{ChallengeID: "c1", Progress: 40}); err != nil || !ok {
		t.Fatalf("enqueue checkin: ok=%v err=%v", ok, err)
	}

	entries, err := q.Pending()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("pending = %d, want 2", len(entries))
	}
	if entries[0].Kind != KindPost || entries[1].Kind != KindCheckin {
		t.Errorf("order = %q, %q", entries[0].Kind, entries[1].Kind)
	}

	var p checkinPayload
	if err := json.Unmarshal(entries[1].Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Progress != 40 {
		t.Errorf("progress = %d, want 40", p.Progress)
	}
}

// TestEnqueueDeduplicates verifies an identical entry is only queued once.
func TestEnqueueDeduplicates(t *testing.T) {
	q, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()

	payload := map[string]string{"content": "same post"}
	if ok, _ := q.Enqueue(KindPost, payload); !ok {
		t.Fatal("first enqueue not accepted")
	}
	if ok, _ := q.Enqueue(KindPost, payload); ok {
		t.Error("duplicate enqueue accepted")
	}

	entries, err := q.Pending()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("pending = %d, want 1", len(entries))
	}
}

// TestSyncDeliversAndDrains verifies delivered entries leave the queue and
// land on the right endpoints with the bearer token set.
func TestSyncDeliversAndDrains(t *testing.T) {
	var sessions, posts, checkins atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/api/v1/sessions/import":
			sessions.Add(1)
		case "/api/v1/posts":
			posts.Add(1)
		case "/api/v1/challenges/c1/checkin":
			checkins.Add(1)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	q, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()
	q.Enqueue(KindSession, map[string]any{"workout": map[string]string{"title": "Leg Day"}})
	q.Enqueue(KindPost, map[string]string{"content": "synced"})
	q.Enqueue(KindCheckin, checkinPayload{ChallengeID: "c1", Progress: 80})

	c := NewClient(srv.URL, "tok")
	stats, err := c.Sync(q, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Delivered != 3 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 3 delivered", stats)
	}
	if sessions.Load() != 1 || posts.Load() != 1 || checkins.Load() != 1 {
		t.Errorf("sessions=%d posts=%d checkins=%d, want 1 each", sessions.Load(), posts.Load(), checkins.Load())
	}

	entries, _ := q.Pending()
	if len(entries) != 0 {
		t.Errorf("queue not drained: %d entries left", len(entries))
	}
}

// TestSyncDryRun verifies dry-run neither sends nor dequeues anything.
func TestSyncDryRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("dry-run sent a request to %q", r.URL.Path)
	}))
	defer srv.Close()

	q, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()
	q.Enqueue(KindPost, map[string]string{"content": "not sent"})

	c := NewClient(srv.URL, "tok")
	c.DryRun = true
	stats, err := c.Sync(q, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Delivered != 0 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want zeroes", stats)
	}

	entries, _ := q.Pending()
	if len(entries) != 1 {
		t.Errorf("queue = %d entries, want 1 kept", len(entries))
	}
}

// TestSyncKeepsEntriesOnServerError verifies a 5xx leaves the entry queued
// for the next run.
func TestSyncKeepsEntriesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	q, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()
	q.Enqueue(KindPost, map[string]string{"content": "will retry"})

	c := NewClient(srv.URL, "tok")
	stats, err := c.Sync(q, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 {
		t.Errorf("failed = %d, want 1", stats.Failed)
	}

	entries, _ := q.Pending()
	if len(entries) != 1 {
		t.Errorf("queue = %d entries, want 1 kept", len(entries))
	}
}

// TestSyncDropsRejectedEntries verifies a 4xx removes the entry so a bad
// payload cannot wedge the queue.
func TestSyncDropsRejectedEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	q, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()
	q.Enqueue(KindPost, map[string]string{"content": ""})

	c := NewClient(srv.URL, "tok")
	if _, err := c.Sync(q, slog.Default()); err != nil {
		t.Fatal(err)
	}

	entries, _ := q.Pending()
	if len(entries) != 0 {
		t.Errorf("queue = %d entries, want 0", len(entries))
	}
}
