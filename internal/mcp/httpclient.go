package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/coordinator"
	"github.com/claude/liftlog/internal/models"
)

// HTTPClient implements Backend by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the workout lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Backend.
var _ Backend = (*HTTPClient)(nil)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.Path, e.Status, e.Message)
}

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// may be empty when the server authenticates by tailnet identity.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &StatusError{Path: path, Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) view(ctx context.Context, method, path string, in any) (coordinator.View, error) {
	var v coordinator.View
	err := c.do(ctx, method, path, in, &v)
	return v, err
}

func (c *HTTPClient) WorkoutState(ctx context.Context) (coordinator.View, error) {
	return c.view(ctx, http.MethodGet, "/api/v1/workout", nil)
}

func (c *HTTPClient) StartWorkout(ctx context.Context) (coordinator.View, error) {
	return c.view(ctx, http.MethodPost, "/api/v1/workout/start", nil)
}

func (c *HTTPClient) CompleteSet(ctx context.Context) (coordinator.View, error) {
	return c.view(ctx, http.MethodPost, "/api/v1/workout/sets/complete", nil)
}

func (c *HTTPClient) SkipRest(ctx context.Context) (coordinator.View, error) {
	return c.view(ctx, http.MethodPost, "/api/v1/workout/rest/complete", nil)
}

func (c *HTTPClient) EndWorkout(ctx context.Context) (coordinator.View, error) {
	return c.view(ctx, http.MethodPost, "/api/v1/workout/end", nil)
}

func (c *HTTPClient) ResetWorkout(ctx context.Context) (coordinator.View, error) {
	return c.view(ctx, http.MethodPost, "/api/v1/workout/reset", nil)
}

func (c *HTTPClient) UpdateElapsed(ctx context.Context, elapsed time.Duration) (coordinator.View, error) {
	return c.view(ctx, http.MethodPut, "/api/v1/workout/elapsed", map[string]int64{"elapsed_ms": elapsed.Milliseconds()})
}

func (c *HTTPClient) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	var list []models.Exercise
	if err := c.do(ctx, http.MethodGet, "/api/v1/exercises", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) CreateExercise(ctx context.Context, name string, sets, reps int) (models.Exercise, error) {
	var ex models.Exercise
	in := models.Exercise{Name: name, Sets: sets, Reps: reps}
	err := c.do(ctx, http.MethodPost, "/api/v1/exercises", in, &ex)
	return ex, err
}

func (c *HTTPClient) DeleteExercise(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/exercises/"+url.PathEscape(id), nil, nil)
}
