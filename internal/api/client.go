// Package api is a thin client for the skills HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/skillstack/internal/domain"
)

// DefaultBaseURL is where the reference API listens in development.
const DefaultBaseURL = "http://127.0.0.1:5000"

// Client issues list, create, update, delete and summarize requests.
// It does no caching and no retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListSkills fetches every skill in server order.
func (c *Client) ListSkills(ctx context.Context) ([]domain.Skill, error) {
	var skills []domain.Skill
	if err := c.do(ctx, http.MethodGet, "/skills", nil, &skills); err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	for i := range skills {
		skills[i] = skills[i].Normalize()
	}
	return skills, nil
}

// CreateSkill creates a skill from a draft and returns the stored record.
func (c *Client) CreateSkill(ctx context.Context, draft domain.Draft) (domain.Skill, error) {
	var created domain.Skill
	if err := c.do(ctx, http.MethodPost, "/skills", draft, &created); err != nil {
		return domain.Skill{}, fmt.Errorf("create skill %q: %w", draft.SkillName, err)
	}
	return created.Normalize(), nil
}

// UpdateSkill replaces the stored record for id with skill.
func (c *Client) UpdateSkill(ctx context.Context, id int64, skill domain.Skill) (domain.Skill, error) {
	var updated domain.Skill
	if err := c.do(ctx, http.MethodPut, skillPath(id), skill, &updated); err != nil {
		return domain.Skill{}, fmt.Errorf("update skill %d: %w", id, err)
	}
	return updated.Normalize(), nil
}

// DeleteSkill permanently removes the skill with the given id.
func (c *Client) DeleteSkill(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, skillPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete skill %d: %w", id, err)
	}
	return nil
}

type summarizeRequest struct {
	Notes string `json:"notes"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// SummarizeNotes asks the API for a summary of notes.
// Blank notes are rejected without a request.
func (c *Client) SummarizeNotes(ctx context.Context, notes string) (string, error) {
	if strings.TrimSpace(notes) == "" {
		return "", fmt.Errorf("summarize notes: %w: notes cannot be empty", ErrValidation)
	}
	var resp summarizeResponse
	if err := c.do(ctx, http.MethodPost, "/summarize-notes", summarizeRequest{Notes: notes}, &resp); err != nil {
		return "", fmt.Errorf("summarize notes: %w", err)
	}
	return resp.Summary, nil
}

func skillPath(id int64) string {
	return "/skills/" + strconv.FormatInt(id, 10)
}

// do sends one request. A nil in skips the body and a nil out discards the response.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", ErrNetwork, err)
	}
	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"latency", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", ErrServer, err)
	}
	return nil
}
