package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/fitcircle/internal/models"
)

func (h *handlers) trainingSummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	stats, err := h.ds.UserStats(ctx, uid)
	if err != nil {
		return nil, err
	}

	active, err := h.ds.FindActiveSession(ctx, uid)
	if err != nil {
		h.log.Warn("training_summary: active session lookup failed", "error", err)
	}

	recent, _, err := h.ds.SessionHistory(ctx, uid, 1, 5, "completed")
	if err != nil {
		h.log.Warn("training_summary: history query failed", "error", err)
	}

	summary := map[string]any{
		"stats":           stats,
		"active_session":  active,
		"recent_sessions": recent,
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) challengeCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	catalog := map[string]any{
		"categories":   models.ChallengeCategories,
		"difficulties": models.ChallengeDifficulties,
		"types":        models.ChallengeTypes,
	}

	data, err := json.Marshal(catalog)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
