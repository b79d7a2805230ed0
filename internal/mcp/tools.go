package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/fitcircle/internal/storage"
)

// pagingParams reads page/limit tool arguments with the same bounds the
// REST API applies.
func pagingParams(req mcp.CallToolRequest) (page, limit int) {
	page = req.GetInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = req.GetInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// --- Tool definitions ---

var toolGetActiveSession = mcp.NewTool("get_active_session",
	mcp.WithDescription("Get the user's current workout session: state (active, paused, resting), per-exercise set progress, and rest countdown. Returns a message when no session is running."),
)

var toolGetSessionHistory = mcp.NewTool("get_session_history",
	mcp.WithDescription("List the user's past workout sessions, newest first, with set-by-set progress and completion metadata."),
	mcp.WithString("status", mcp.Description("Filter by outcome"), mcp.Enum("completed", "cancelled")),
	mcp.WithNumber("page", mcp.Description("Page number, starting at 1.")),
	mcp.WithNumber("limit", mcp.Description("Sessions per page (max 100). Defaults to 20.")),
)

var toolGetProgressStats = mcp.NewTool("get_progress_stats",
	mcp.WithDescription("Lifetime training totals for the user: completed sessions, active time, sets and reps logged, calories, current workout streak and active challenge count."),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("Browse the workout catalog with optional filters. Each workout lists its exercises with set counts, rep targets and rest periods."),
	mcp.WithString("category", mcp.Description("Filter by category (e.g. strength, cardio, hiit, yoga)")),
	mcp.WithString("difficulty", mcp.Description("Filter by difficulty (beginner, intermediate, advanced)")),
)

var toolListChallenges = mcp.NewTool("list_challenges",
	mcp.WithDescription("Browse community challenges. Includes participant counts and whether the user has joined each one."),
	mcp.WithString("category", mcp.Description("Filter by category (e.g. weight-loss, endurance, strength)")),
	mcp.WithString("difficulty", mcp.Description("Filter by difficulty (beginner, intermediate, advanced, expert)")),
	mcp.WithString("status", mcp.Description("Filter by lifecycle stage. Defaults to active."), mcp.Enum("active", "upcoming", "completed")),
	mcp.WithString("search", mcp.Description("Match against title and description")),
	mcp.WithNumber("page", mcp.Description("Page number, starting at 1.")),
	mcp.WithNumber("limit", mcp.Description("Challenges per page (max 100). Defaults to 20.")),
)

var toolGetLeaderboard = mcp.NewTool("get_challenge_leaderboard",
	mcp.WithDescription("Ranked participants of a challenge by check-in progress."),
	mcp.WithString("challenge_id", mcp.Required(), mcp.Description("Challenge UUID")),
)

var toolGetFeed = mcp.NewTool("get_feed",
	mcp.WithDescription("The user's social feed: posts from followed users and their own, with like counts and comments."),
	mcp.WithNumber("page", mcp.Description("Page number, starting at 1.")),
	mcp.WithNumber("limit", mcp.Description("Posts per page (max 100). Defaults to 20.")),
)

// --- Tool handlers ---

func (h *handlers) getActiveSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	s, err := h.ds.FindActiveSession(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_active_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if s == nil {
		return mcp.NewToolResultText("no active workout session"), nil
	}

	result, err := mcp.NewToolResultJSON(s)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	page, limit := pagingParams(req)
	status := req.GetString("status", "")

	sessions, pagination, err := h.ds.SessionHistory(ctx, uid, page, limit, status)
	if err != nil {
		h.log.Error("mcp get_session_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"sessions":   sessions,
		"pagination": pagination,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgressStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	stats, err := h.ds.UserStats(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_progress_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workouts, err := h.ds.QueryWorkouts(ctx, req.GetString("category", ""), req.GetString("difficulty", ""))
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listChallenges(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	page, limit := pagingParams(req)

	challenges, pagination, err := h.ds.QueryChallenges(ctx, uid, storage.ChallengeFilter{
		Category:   req.GetString("category", ""),
		Difficulty: req.GetString("difficulty", ""),
		Status:     req.GetString("status", ""),
		Search:     req.GetString("search", ""),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		h.log.Error("mcp list_challenges", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"challenges": challenges,
		"pagination": pagination,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getLeaderboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("challenge_id")
	if err != nil {
		return mcp.NewToolResultError("challenge_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("challenge_id must be a UUID"), nil
	}

	entries, err := h.ds.Leaderboard(ctx, id)
	if err != nil {
		h.log.Error("mcp get_challenge_leaderboard", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(entries)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getFeed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	page, limit := pagingParams(req)

	posts, pagination, err := h.ds.Feed(ctx, uid, page, limit)
	if err != nil {
		h.log.Error("mcp get_feed", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"posts":      posts,
		"pagination": pagination,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
