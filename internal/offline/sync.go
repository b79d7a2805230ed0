package offline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client delivers queued entries to the FitCircle server over HTTP.
type Client struct {
	serverURL  string
	token      string
	httpClient *http.Client

	// DryRun logs what would be delivered without sending or dequeuing.
	DryRun bool
}

// NewClient creates a sync client for the given server, authenticating
// with the given bearer token.
func NewClient(serverURL, token string) *Client {
	return &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// checkinPayload carries the challenge id alongside the check-in body so a
// queued entry is self-contained.
type checkinPayload struct {
	ChallengeID string `json:"challenge_id"`
	Progress    int    `json:"progress"`
	Notes       string `json:"notes,omitempty"`
}

// Stats summarizes one sync run.
type Stats struct {
	Delivered int
	Failed    int
}

// Sync delivers every pending entry, removing each from the queue on
// success. Entries the server rejects with a 4xx are dropped with a
// warning; transport failures and 5xx responses keep the entry queued.
func (c *Client) Sync(q *QueueDB, log *slog.Logger) (*Stats, error) {
	entries, err := q.Pending()
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, e := range entries {
		if c.DryRun {
			log.Info("dry-run: would deliver", "id", e.ID, "kind", e.Kind)
			continue
		}
		status, err := c.deliver(e)
		switch {
		case err != nil:
			log.Warn("delivery failed, keeping entry queued", "id", e.ID, "kind", e.Kind, "error", err)
			stats.Failed++
		case status >= 500:
			log.Warn("server error, keeping entry queued", "id", e.ID, "kind", e.Kind, "status", status)
			stats.Failed++
		case status >= 400:
			log.Warn("entry rejected, dropping", "id", e.ID, "kind", e.Kind, "status", status)
			if err := q.Remove(e.ID); err != nil {
				return stats, err
			}
		default:
			if err := q.Remove(e.ID); err != nil {
				return stats, err
			}
			stats.Delivered++
		}
	}
	return stats, nil
}

func (c *Client) deliver(e Entry) (int, error) {
	path, body, err := c.route(e)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, c.serverURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func (c *Client) route(e Entry) (path string, body []byte, err error) {
	switch e.Kind {
	case KindSession:
		return "/api/v1/sessions/import", e.Payload, nil
	case KindPost:
		return "/api/v1/posts", e.Payload, nil
	case KindCheckin:
		var p checkinPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return "", nil, fmt.Errorf("decoding checkin entry %d: %w", e.ID, err)
		}
		body, err := json.Marshal(map[string]any{"progress": p.Progress, "notes": p.Notes})
		if err != nil {
			return "", nil, err
		}
		return "/api/v1/challenges/" + p.ChallengeID + "/checkin", body, nil
	default:
		return "", nil, fmt.Errorf("unknown entry kind %q", e.Kind)
	}
}
