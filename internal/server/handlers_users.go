package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func pathUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	target, ok := pathUserID(w, r)
	if !ok {
		return
	}
	if target == uid {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot follow yourself"})
		return
	}

	other, err := s.db.GetUserByID(r.Context(), target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if other == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	followed, err := s.db.Follow(r.Context(), uid, target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !followed {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already following"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "following"})
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	target, ok := pathUserID(w, r)
	if !ok {
		return
	}
	unfollowed, err := s.db.Unfollow(r.Context(), uid, target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !unfollowed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not following"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unfollowed"})
}

func (s *Server) handleFollowing(w http.ResponseWriter, r *http.Request) {
	target, ok := pathUserID(w, r)
	if !ok {
		return
	}
	profiles, err := s.db.ListFollowing(r.Context(), target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleProgressStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	stats, err := s.db.UserStats(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
