package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/fitcircle/internal/models"
)

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	page, limit := parsePaging(r)

	posts, pagination, err := s.db.Feed(r.Context(), uid, page, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":      posts,
		"pagination": pagination,
	})
}

type createPostRequest struct {
	Content   string     `json:"content"`
	Image     string     `json:"image"`
	SessionID *uuid.UUID `json:"session_id"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req createPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}
	if len(req.Content) > 2000 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content exceeds 2000 characters"})
		return
	}

	p := &models.Post{
		ID:        uuid.New(),
		UserID:    uid,
		Content:   req.Content,
		Image:     req.Image,
		SessionID: req.SessionID,
	}
	if err := s.db.InsertPost(r.Context(), p); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.db.GetPost(r.Context(), p.ID, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	deleted, err := s.db.DeletePost(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found or not yours"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleLikePost(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}

	exists, err := s.db.PostExists(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}

	liked, count, err := s.db.ToggleLike(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "likes": count})
}

type commentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}

	exists, err := s.db.PostExists(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}

	c := &models.Comment{PostID: id, UserID: uid, Content: req.Content}
	if err := s.db.InsertComment(r.Context(), c); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
