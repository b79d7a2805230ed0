package server

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/fitcircle/internal/models"
	"github.com/meltforce/fitcircle/internal/storage"
)

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	page, limit := parsePaging(r)
	q := r.URL.Query()

	challenges, pagination, err := s.db.QueryChallenges(r.Context(), uid, storage.ChallengeFilter{
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
		Status:     q.Get("status"),
		Search:     q.Get("search"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"challenges": challenges,
		"pagination": pagination,
	})
}

type challengeRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Difficulty      string    `json:"difficulty"`
	Type            string    `json:"type"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	MaxParticipants int       `json:"max_participants"`
}

func (req *challengeRequest) validate() string {
	switch {
	case strings.TrimSpace(req.Title) == "":
		return "title is required"
	case !slices.Contains(models.ChallengeCategories, req.Category):
		return "unknown category"
	case !slices.Contains(models.ChallengeDifficulties, req.Difficulty):
		return "unknown difficulty"
	case req.Type != "" && !slices.Contains(models.ChallengeTypes, req.Type):
		return "unknown type"
	case req.EndDate.IsZero() || req.StartDate.IsZero():
		return "start_date and end_date are required"
	case !req.EndDate.After(req.StartDate):
		return "end_date must be after start_date"
	case req.MaxParticipants < 0:
		return "max_participants cannot be negative"
	}
	return ""
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req challengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}
	if req.Type == "" {
		req.Type = "custom"
	}

	c := &models.Challenge{
		ID:              uuid.New(),
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		CreatorID:       uid,
		Category:        req.Category,
		Difficulty:      req.Difficulty,
		Type:            req.Type,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		MaxParticipants: req.MaxParticipants,
		IsActive:        true,
	}
	if err := s.db.InsertChallenge(r.Context(), c); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.db.GetChallenge(r.Context(), c.ID, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	c, err := s.db.GetChallenge(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "challenge not found"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateChallenge(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var req challengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	c := &models.Challenge{
		ID:              id,
		CreatorID:       uid,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Category:        req.Category,
		Difficulty:      req.Difficulty,
		EndDate:         req.EndDate,
		MaxParticipants: req.MaxParticipants,
	}
	updated, err := s.db.UpdateChallenge(r.Context(), c)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !updated {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "challenge not found or not yours"})
		return
	}
	fresh, err := s.db.GetChallenge(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fresh)
}

func (s *Server) handleDeleteChallenge(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	deleted, err := s.db.DeactivateChallenge(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "challenge not found or not yours"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (s *Server) handleJoinChallenge(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}

	c, err := s.db.GetChallenge(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	switch {
	case c == nil || !c.IsActive:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "challenge not found"})
		return
	case c.EndDate.Before(time.Now()):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "challenge has ended"})
		return
	case c.MaxParticipants > 0 && c.Participants >= c.MaxParticipants:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "challenge is full"})
		return
	}

	joined, err := s.db.JoinChallenge(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !joined {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already participating"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

func (s *Server) handleLeaveChallenge(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	left, err := s.db.LeaveChallenge(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !left {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not participating"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

type checkinRequest struct {
	Progress int    `json:"progress"`
	Notes    string `json:"notes"`
}

func (s *Server) handleChallengeCheckin(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var req checkinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Progress < 0 || req.Progress > 100 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "progress must be between 0 and 100"})
		return
	}

	participating, err := s.db.IsParticipant(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !participating {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "join the challenge before checking in"})
		return
	}

	checkin := &models.Checkin{ChallengeID: id, UserID: uid, Progress: req.Progress, Notes: req.Notes}
	if err := s.db.InsertCheckin(r.Context(), checkin); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkin)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustUserID(w, r); !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	entries, err := s.db.Leaderboard(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
