// Package backlogapi is a typed client for the backlog-generation REST API.
//
// The service owns the generation pipeline; this client only authenticates,
// submits jobs, and reads status. All endpoints speak JSON over plain HTTP
// with bearer auth.
package backlogapi

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/mwhitford/backlogctl/internal/errors"
	"github.com/mwhitford/backlogctl/internal/limits"
)

const endpointName = "backlog API"

// maxBodyBytes caps how much of a response we read for diagnostics.
const maxBodyBytes = 1 << 20

// Client talks to one backlog-generation API instance.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.ErrConfigMissing("api.base_url")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

// SetToken installs a bearer token obtained out of band.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token, if any.
func (c *Client) Token() string {
	return c.token
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login authenticates against /api/auth/login and stores the bearer token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := c.post(ctx, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return errors.ErrAuthFailed(endpointName).WithCause(
			fmt.Errorf("login response carried no access_token"))
	}
	c.token = token
	return nil
}

// OptimizeVision submits a product vision for LLM refinement and returns
// the optimized text.
func (c *Client) OptimizeVision(ctx context.Context, vision string) (string, error) {
	body, err := c.post(ctx, "/api/vision/optimize", map[string]string{"vision": vision})
	if err != nil {
		return "", err
	}

	optimized := gjson.GetBytes(body, "optimized_vision").String()
	if optimized == "" {
		// Older server builds echo the field back under "vision".
		optimized = gjson.GetBytes(body, "vision").String()
	}
	if optimized == "" {
		return "", errors.ErrEndpointRejected(endpointName, http.StatusOK,
			"optimize response carried no vision text")
	}
	return optimized, nil
}

// SubmitRequest describes one generation job.
type SubmitRequest struct {
	Project   string         `json:"project"`
	Vision    string         `json:"vision"`
	Limits    *limits.Limits `json:"limits,omitempty"`
	LLMConfig string         `json:"llm_config,omitempty"`
}

// SubmitJob enqueues a generation job and returns the server-assigned job
// identifier. Each submission carries a client-generated request ID so a
// retried POST is deduplicated server-side.
func (c *Client) SubmitJob(ctx context.Context, req SubmitRequest) (string, error) {
	if req.Project == "" {
		return "", errors.ErrConfigMissing("project")
	}

	body, err := c.do(ctx, http.MethodPost, "/api/jobs/add", req, map[string]string{
		"X-Request-ID": uuid.NewString(),
	})
	if err != nil {
		return "", err
	}

	jobID := gjson.GetBytes(body, "job_id").String()
	if jobID == "" {
		jobID = gjson.GetBytes(body, "id").String()
	}
	if jobID == "" {
		return "", errors.ErrEndpointRejected(endpointName, http.StatusOK,
			"submit response carried no job id")
	}
	return jobID, nil
}

// JobStatus is a point-in-time snapshot of a generation job.
type JobStatus struct {
	ID           string  `json:"id"`
	State        string  `json:"state"`
	Progress     float64 `json:"progress"`
	CurrentAgent string  `json:"current_agent,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Terminal reports whether the job is finished.
func (s *JobStatus) Terminal() bool {
	switch s.State {
	case "completed", "failed", "cancelled":
		return true
	default:
		return false
	}
}

// JobStatus fetches the current status of a job.
func (c *Client) JobStatus(ctx context.Context, id string) (*JobStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/backlog/status/"+id, nil, nil)
	if err != nil {
		return nil, err
	}

	var status JobStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("parse status for job %s: %w", id, err)
	}
	if status.ID == "" {
		status.ID = id
	}
	return &status, nil
}

// CheckAuth verifies the client can reach and authenticate with the API.
func (c *Client) CheckAuth(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/backlog/status/ping", nil, nil)
	if err == nil {
		return nil
	}
	// A 404 means we reached an authenticated route table; good enough
	// for a reachability check.
	var te *errors.ToolError
	if stderrors.As(err, &te) && te.Code == errors.CodeEndpointRejected {
		return nil
	}
	return err
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

// do issues one request and returns the response body, translating
// transport and HTTP-level failures into coded errors.
func (c *Client) do(ctx context.Context, method, path string, payload any, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.ErrEndpointUnavailable(endpointName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpErr := errors.FromHTTPStatus(endpointName, resp.StatusCode, truncate(string(body), 200)); httpErr != nil {
		return nil, httpErr
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
