package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/repbuddy/internal/models"
	"github.com/claude/repbuddy/internal/storage"
)

// HTTPClient implements DataSource by calling the RepBuddy REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// may be empty when the server runs without one.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

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
		return nil, fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func getJSON[T any](ctx context.Context, c *HTTPClient, path, what string) (T, error) {
	var out T
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("httpclient: decode %s: %w", what, err)
	}
	return out, nil
}

func (c *HTTPClient) GetWorkouts(ctx context.Context) ([]models.Workout, error) {
	return getJSON[[]models.Workout](ctx, c, "/api/v1/workouts", "workouts")
}

func (c *HTTPClient) GetWorkout(ctx context.Context, id string) (models.Workout, error) {
	return getJSON[models.Workout](ctx, c, "/api/v1/workouts/"+url.PathEscape(id), "workout")
}

func (c *HTTPClient) GetExercises(ctx context.Context) ([]models.Exercise, error) {
	return getJSON[[]models.Exercise](ctx, c, "/api/v1/exercises", "exercises")
}

// GetRoutines drops the resolved exercise names the API adds; callers
// resolve them against GetExercises.
func (c *HTTPClient) GetRoutines(ctx context.Context) ([]models.Routine, error) {
	return getJSON[[]models.Routine](ctx, c, "/api/v1/routines", "routines")
}

func (c *HTTPClient) GetProfile(ctx context.Context) (models.UserProfile, error) {
	return getJSON[models.UserProfile](ctx, c, "/api/v1/profile", "profile")
}
