// Package client is a Go client for the timesheet API. It keeps the session
// cookie in memory and issues exactly one request per call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/yukikurage/timesheet-api/internal/dto"
	"github.com/yukikurage/timesheet-api/internal/models"
)

const defaultTimeout = 30 * time.Second

// Client talks to one API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Jar is kept as-is;
// without one the session will not survive between calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar, Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Login opens a session. Later calls reuse its cookie.
func (c *Client) Login(ctx context.Context, username, password string) (*dto.UserDTO, error) {
	var user dto.UserDTO
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Task fetches a task.
func (c *Client) Task(ctx context.Context, taskID uint64) (*dto.TaskDTO, error) {
	var task dto.TaskDTO
	if err := c.do(ctx, http.MethodGet, taskPath(taskID, ""), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Transition applies a timer action to a task. It is never retried.
func (c *Client) Transition(ctx context.Context, taskID uint64, action models.TimerAction, note string) (*dto.TaskTimerDTO, error) {
	var body interface{}
	if note != "" {
		body = map[string]string{"note": note}
	}

	var timer dto.TaskTimerDTO
	if err := c.do(ctx, http.MethodPost, taskPath(taskID, "/"+string(action)), body, &timer); err != nil {
		return nil, err
	}
	return &timer, nil
}

func (c *Client) Start(ctx context.Context, taskID uint64, note string) (*dto.TaskTimerDTO, error) {
	return c.Transition(ctx, taskID, models.TimerActionStart, note)
}

func (c *Client) Pause(ctx context.Context, taskID uint64, note string) (*dto.TaskTimerDTO, error) {
	return c.Transition(ctx, taskID, models.TimerActionPause, note)
}

func (c *Client) Resume(ctx context.Context, taskID uint64, note string) (*dto.TaskTimerDTO, error) {
	return c.Transition(ctx, taskID, models.TimerActionResume, note)
}

func (c *Client) Stop(ctx context.Context, taskID uint64, note string) (*dto.TaskTimerDTO, error) {
	return c.Transition(ctx, taskID, models.TimerActionStop, note)
}

func (c *Client) Complete(ctx context.Context, taskID uint64, note string) (*dto.TaskTimerDTO, error) {
	return c.Transition(ctx, taskID, models.TimerActionComplete, note)
}

// Logs returns one page of a task's ledger.
func (c *Client) Logs(ctx context.Context, taskID uint64, page, limit int) (*dto.TimeLogListResponse, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}

	var logs dto.TimeLogListResponse
	if err := c.do(ctx, http.MethodGet, withQuery(taskPath(taskID, "/logs"), q), nil, &logs); err != nil {
		return nil, err
	}
	return &logs, nil
}

// Summary aggregates a task's ledger; groupBy is "day" or "week".
func (c *Client) Summary(ctx context.Context, taskID uint64, groupBy string) (*dto.TimeSummaryDTO, error) {
	q := url.Values{}
	if groupBy != "" {
		q.Set("group_by", groupBy)
	}

	var summary dto.TimeSummaryDTO
	if err := c.do(ctx, http.MethodGet, withQuery(taskPath(taskID, "/logs/summary"), q), nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) ClockIn(ctx context.Context) (*dto.TimesheetDTO, error) {
	var ts dto.TimesheetDTO
	if err := c.do(ctx, http.MethodPost, "/api/timesheet/clockin", nil, &ts); err != nil {
		return nil, err
	}
	return &ts, nil
}

func (c *Client) ClockOut(ctx context.Context) (*dto.ClockOutResponse, error) {
	var out dto.ClockOutResponse
	if err := c.do(ctx, http.MethodPost, "/api/timesheet/clockout", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TimesheetStatus(ctx context.Context) (*dto.TimesheetStatusDTO, error) {
	var status dto.TimesheetStatusDTO
	if err := c.do(ctx, http.MethodGet, "/api/timesheet/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func taskPath(taskID uint64, suffix string) string {
	return fmt.Sprintf("/api/tasks/%d%s", taskID, suffix)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
