package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/fitcircle/internal/models"
	"github.com/meltforce/fitcircle/internal/session"
	"github.com/meltforce/fitcircle/internal/storage"
)

// HTTPClient implements DataSource by calling the FitCircle REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but data
// lives on the remote server. The server resolves the user from the bearer
// token, so the userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL,
// authenticating with the given bearer token.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// errNotFound marks a 404 so callers can map it to an empty result.
var errNotFound = fmt.Errorf("not found")

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func pagingValues(page, limit int) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	return v
}

func (c *HTTPClient) FindActiveSession(ctx context.Context, _ int) (*session.Session, error) {
	body, err := c.get(ctx, "/api/v1/sessions/active", nil)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s session.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &s, nil
}

func (c *HTTPClient) SessionHistory(ctx context.Context, _ int, page, limit int, status string) ([]*session.Session, models.Pagination, error) {
	params := pagingValues(page, limit)
	if status != "" {
		params.Set("status", status)
	}

	body, err := c.get(ctx, "/api/v1/sessions/history", params)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	var out struct {
		Sessions   []*session.Session `json:"sessions"`
		Pagination models.Pagination  `json:"pagination"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("httpclient: decode history: %w", err)
	}
	return out.Sessions, out.Pagination, nil
}

func (c *HTTPClient) UserStats(ctx context.Context, _ int) (*storage.ProgressStats, error) {
	body, err := c.get(ctx, "/api/v1/progress", nil)
	if err != nil {
		return nil, err
	}

	var stats storage.ProgressStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("httpclient: decode stats: %w", err)
	}
	return &stats, nil
}

func (c *HTTPClient) QueryWorkouts(ctx context.Context, category, difficulty string) ([]models.Workout, error) {
	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	if difficulty != "" {
		params.Set("difficulty", difficulty)
	}

	body, err := c.get(ctx, "/api/v1/workouts", params)
	if err != nil {
		return nil, err
	}

	var workouts []models.Workout
	if err := json.Unmarshal(body, &workouts); err != nil {
		return nil, fmt.Errorf("httpclient: decode workouts: %w", err)
	}
	return workouts, nil
}

func (c *HTTPClient) QueryChallenges(ctx context.Context, _ int, f storage.ChallengeFilter) ([]models.Challenge, models.Pagination, error) {
	params := pagingValues(f.Page, f.Limit)
	if f.Category != "" {
		params.Set("category", f.Category)
	}
	if f.Difficulty != "" {
		params.Set("difficulty", f.Difficulty)
	}
	if f.Status != "" {
		params.Set("status", f.Status)
	}
	if f.Search != "" {
		params.Set("search", f.Search)
	}

	body, err := c.get(ctx, "/api/v1/challenges", params)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	var out struct {
		Challenges []models.Challenge `json:"challenges"`
		Pagination models.Pagination  `json:"pagination"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("httpclient: decode challenges: %w", err)
	}
	return out.Challenges, out.Pagination, nil
}

func (c *HTTPClient) Leaderboard(ctx context.Context, challengeID uuid.UUID) ([]models.LeaderboardEntry, error) {
	body, err := c.get(ctx, "/api/v1/challenges/"+challengeID.String()+"/leaderboard", nil)
	if err != nil {
		return nil, err
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("httpclient: decode leaderboard: %w", err)
	}
	return entries, nil
}

func (c *HTTPClient) Feed(ctx context.Context, _ int, page, limit int) ([]models.Post, models.Pagination, error) {
	body, err := c.get(ctx, "/api/v1/posts", pagingValues(page, limit))
	if err != nil {
		return nil, models.Pagination{}, err
	}

	var out struct {
		Posts      []models.Post     `json:"posts"`
		Pagination models.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("httpclient: decode feed: %w", err)
	}
	return out.Posts, out.Pagination, nil
}
