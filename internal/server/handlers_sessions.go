package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/fitcircle/internal/session"
)

type startSessionRequest struct {
	Workout session.WorkoutDefinition `json:"workout"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req startSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := s.sessions.Start(r.Context(), uid, req.Workout)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	snap, err := s.sessions.Active(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	page, limit := parsePaging(r)
	status := r.URL.Query().Get("status")

	sessions, pagination, err := s.db.SessionHistory(r.Context(), uid, page, limit, status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions":   sessions,
		"pagination": pagination,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	snap, err := s.db.GetSession(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	ei, ok := pathIndex(w, r, "ei")
	if !ok {
		return
	}
	si, ok := pathIndex(w, r, "si")
	if !ok {
		return
	}
	var result session.SetResult
	if !decodeJSON(w, r, &result) {
		return
	}

	snap, err := s.sessions.CompleteSet(r.Context(), uid, id, ei, si, result)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type completeExerciseRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleCompleteExercise(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	ei, ok := pathIndex(w, r, "ei")
	if !ok {
		return
	}
	var req completeExerciseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := s.sessions.CompleteExercise(r.Context(), uid, id, ei, req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var final session.FinalData
	if !decodeJSON(w, r, &final) {
		return
	}

	snap, err := s.sessions.Complete(r.Context(), uid, id, final)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type importSessionRequest struct {
	Workout   session.WorkoutDefinition `json:"workout"`
	StartTime time.Time                 `json:"start_time"`
	EndTime   time.Time                 `json:"end_time"`
	Final     session.FinalData         `json:"final"`
}

// handleImportSession records an externally logged, already-finished
// workout. Used by the offline logger's sync.
func (s *Server) handleImportSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req importSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := session.ImportCompleted(uid, req.Workout, req.StartTime, req.EndTime, req.Final)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.db.InsertSession(r.Context(), snap); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(w, r, s.sessions.Pause)
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(w, r, s.sessions.Resume)
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(w, r, s.sessions.SkipRest)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(w, r, s.sessions.Cancel)
}

func (s *Server) sessionOp(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, userID int, id uuid.UUID) (*session.Session, error)) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	snap, err := op(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
