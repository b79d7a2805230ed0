package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/fitcircle/internal/session"
	"github.com/meltforce/fitcircle/internal/storage"
	"tailscale.com/client/tailscale"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	ids      identityStore
	sessions *session.Manager
	tokenTTL time.Duration
	log      *slog.Logger
	ts       *tailscale.LocalClient
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, sessions *session.Manager, tokenTTL time.Duration, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		ids:      db,
		sessions: sessions,
		tokenTTL: tokenTTL,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale enables whois-based identity for requests arriving over a
// tsnet listener. Bearer tokens still take precedence when present.
func (s *Server) SetTailscale(lc *tailscale.LocalClient) {
	s.ts = lc
}

// MountMCP attaches an MCP transport handler at /mcp.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
	s.router.Handle("/mcp/*", h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/health", s.handleHealth)

		// Everything else requires an identity
		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate)

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/logout", s.handleLogout)

			r.Get("/workouts", s.handleListWorkouts)
			r.Get("/workouts/{id}", s.handleGetWorkout)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/start", s.handleStartSession)
				r.Post("/import", s.handleImportSession)
				r.Get("/active", s.handleActiveSession)
				r.Get("/history", s.handleSessionHistory)
				r.Get("/{id}", s.handleGetSession)
				r.Put("/{id}/exercises/{ei}/sets/{si}", s.handleCompleteSet)
				r.Put("/{id}/exercises/{ei}/complete", s.handleCompleteExercise)
				r.Put("/{id}/complete", s.handleCompleteSession)
				r.Put("/{id}/pause", s.handlePauseSession)
				r.Put("/{id}/resume", s.handleResumeSession)
				r.Post("/{id}/skip-rest", s.handleSkipRest)
				r.Delete("/{id}", s.handleCancelSession)
			})

			r.Route("/challenges", func(r chi.Router) {
				r.Get("/", s.handleListChallenges)
				r.Post("/", s.handleCreateChallenge)
				r.Get("/{id}", s.handleGetChallenge)
				r.Put("/{id}", s.handleUpdateChallenge)
				r.Delete("/{id}", s.handleDeleteChallenge)
				r.Post("/{id}/join", s.handleJoinChallenge)
				r.Post("/{id}/leave", s.handleLeaveChallenge)
				r.Post("/{id}/checkin", s.handleChallengeCheckin)
				r.Get("/{id}/leaderboard", s.handleLeaderboard)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", s.handleFeed)
				r.Post("/", s.handleCreatePost)
				r.Delete("/{id}", s.handleDeletePost)
				r.Put("/{id}/like", s.handleLikePost)
				r.Post("/{id}/comments", s.handleAddComment)
			})

			r.Put("/users/{id}/follow", s.handleFollow)
			r.Put("/users/{id}/unfollow", s.handleUnfollow)
			r.Get("/users/{id}/following", s.handleFollowing)

			r.Get("/progress", s.handleProgressStats)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
