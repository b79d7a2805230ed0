package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/meltforce/fitcircle/internal/models"
	"github.com/meltforce/fitcircle/internal/session"
	"github.com/meltforce/fitcircle/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	FindActiveSession(ctx context.Context, userID int) (*session.Session, error)
	SessionHistory(ctx context.Context, userID, page, limit int, status string) ([]*session.Session, models.Pagination, error)
	UserStats(ctx context.Context, userID int) (*storage.ProgressStats, error)
	QueryWorkouts(ctx context.Context, category, difficulty string) ([]models.Workout, error)
	QueryChallenges(ctx context.Context, viewerID int, f storage.ChallengeFilter) ([]models.Challenge, models.Pagination, error)
	Leaderboard(ctx context.Context, challengeID uuid.UUID) ([]models.LeaderboardEntry, error)
	Feed(ctx context.Context, viewerID, page, limit int) ([]models.Post, models.Pagination, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
