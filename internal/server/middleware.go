package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const userIDKey contextKey = "user_id"

// identityStore is the subset of storage the auth middleware needs.
type identityStore interface {
	UserIDForToken(ctx context.Context, token string) (int, error)
	GetOrCreateTailscaleUser(ctx context.Context, login, displayName string) (int, error)
}

// Authenticate resolves the requesting user. A Bearer token is checked
// first; with a tsnet listener attached, the tailnet identity is used as a
// fallback so tailnet clients need no explicit login.
func (s *Server) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			uid, err := s.ids.UserIDForToken(r.Context(), token)
			if err != nil {
				s.log.Error("token lookup failed", "error", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "auth lookup failed"})
				return
			}
			if uid == 0 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, uid)))
			return
		}

		if s.ts != nil {
			who, err := s.ts.WhoIs(r.Context(), r.RemoteAddr)
			if err == nil && who.UserProfile != nil && who.UserProfile.LoginName != "" {
				uid, err := s.ids.GetOrCreateTailscaleUser(r.Context(),
					who.UserProfile.LoginName, who.UserProfile.DisplayName)
				if err != nil {
					s.log.Error("tailscale identity failed", "error", err)
					writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "auth lookup failed"})
					return
				}
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, uid)))
				return
			}
		}

		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// userIDFromContext returns the authenticated user id, or 0 when the
// request never passed through Authenticate.
func userIDFromContext(r *http.Request) int {
	if id, ok := r.Context().Value(userIDKey).(int); ok {
		return id
	}
	return 0
}

func mustUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	uid := userIDFromContext(r)
	if uid == 0 {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return 0, false
	}
	return uid, true
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
