package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is used when no API address is configured.
const DefaultBaseURL = "http://localhost:8080"

// Client provides typed access to the operator API for interactive tools.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL: strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// redirects carry flash messages the caller reads itself
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, token string) (*http.Request, error) {
	if c == nil {
		return nil, errors.New("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	req, err := c.newRequest(ctx, method, path, body, token)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	if payload.Error == "" {
		return strings.TrimSpace(payload.Message)
	}
	return strings.TrimSpace(payload.Error)
}

// LoginResponse captures the session payload emitted by the API.
type LoginResponse struct {
	Operator Operator  `json:"operator"`
	Tokens   TokenPair `json:"tokens"`
}

// Operator reflects API operator payloads.
type Operator struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TokenPair includes access and refresh tokens.
type TokenPair struct {
	AccessToken  string        `json:"AccessToken"`
	RefreshToken string        `json:"RefreshToken"`
	ExpiresIn    time.Duration `json:"ExpiresIn"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, "", &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (LoginResponse, error) {
	body := map[string]string{"refreshToken": refreshToken}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", body, "", &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// LogEntry is one parsed log line.
type LogEntry struct {
	Timestamp int64          `json:"timestamp"`
	Datetime  string         `json:"datetime"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context"`
	Date      string         `json:"date"`
	Raw       string         `json:"raw"`
}

// LogQuery selects the log window and filters.
type LogQuery struct {
	Days   int
	Level  string
	Search string
}

// LogsResponse is the log dashboard payload.
type LogsResponse struct {
	Logs         []LogEntry `json:"logs"`
	Days         int        `json:"days"`
	TotalLogs    int        `json:"totalLogs"`
	FilteredLogs int        `json:"filteredLogs"`
	Levels       []string   `json:"levels"`
}

// Logs fetches log entries, newest first.
func (c *Client) Logs(ctx context.Context, token string, q LogQuery) (LogsResponse, error) {
	params := url.Values{}
	if q.Days > 0 {
		params.Set("days", strconv.Itoa(q.Days))
	}
	if q.Level != "" {
		params.Set("level", q.Level)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	path := "/firebase-logs"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var resp LogsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, token, &resp); err != nil {
		return LogsResponse{}, err
	}
	return resp, nil
}

// WriteTestLog appends a diagnostic entry and returns the confirmation flash.
func (c *Client) WriteTestLog(ctx context.Context, token string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/firebase-logs/test", nil, token)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if resp.StatusCode != http.StatusFound && resp.StatusCode != http.StatusSeeOther {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		return "", fmt.Errorf("parse redirect: %w", err)
	}
	return location.Query().Get("flash"), nil
}

// StreamLogs follows newly written entries until ctx is cancelled or fn
// returns an error.
func (c *Client) StreamLogs(ctx context.Context, token string, fn func(LogEntry) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/firebase-logs/stream", nil, token)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	streaming := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streaming.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &entry); err != nil {
			return fmt.Errorf("decode entry: %w", err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return io.ErrUnexpectedEOF
}

// ConnectionResult reports a provider connectivity check.
type ConnectionResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ProjectID string    `json:"projectId"`
	CheckedAt time.Time `json:"checkedAt"`
	Error     string    `json:"error,omitempty"`
}

// TestConnection checks the identity provider connection.
func (c *Client) TestConnection(ctx context.Context, token string) (ConnectionResult, error) {
	var resp ConnectionResult
	if err := c.do(ctx, http.MethodGet, "/firebase-test", nil, token, &resp); err != nil {
		return ConnectionResult{}, err
	}
	return resp, nil
}

// User is an identity provider account.
type User struct {
	UID           string  `json:"uid"`
	Email         *string `json:"email"`
	DisplayName   *string `json:"displayName"`
	PhoneNumber   *string `json:"phoneNumber"`
	PhotoURL      *string `json:"photoUrl"`
	EmailVerified bool    `json:"emailVerified"`
	Disabled      bool    `json:"disabled"`
	Role          *string `json:"role"`
	Metadata      struct {
		CreatedAt   *string `json:"createdAt"`
		LastLoginAt *string `json:"lastLoginAt"`
	} `json:"metadata"`
}

// UsersResponse is the user listing payload.
type UsersResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Users      []User `json:"users"`
	TotalUsers int    `json:"totalUsers"`
	Error      string `json:"error,omitempty"`
}

// ListUsers lists identity provider accounts. A provider failure is reported
// as an error.
func (c *Client) ListUsers(ctx context.Context, token string) (UsersResponse, error) {
	var resp UsersResponse
	if err := c.do(ctx, http.MethodGet, "/firebase-users", nil, token, &resp); err != nil {
		return UsersResponse{}, err
	}
	if !resp.Success {
		return resp, fmt.Errorf("%s: %s", resp.Message, resp.Error)
	}
	return resp, nil
}

// RoleResponse is the role assignment payload.
type RoleResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UID     string `json:"uid"`
	Role    string `json:"role"`
}

// SetRole assigns role to the user identified by uid.
func (c *Client) SetRole(ctx context.Context, token, uid, role string) (RoleResponse, error) {
	body := map[string]string{"uid": uid, "role": role}
	var resp RoleResponse
	if err := c.do(ctx, http.MethodPost, "/firebase-users/set-role", body, token, &resp); err != nil {
		return RoleResponse{}, err
	}
	return resp, nil
}
