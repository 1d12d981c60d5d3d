package client

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

	"github.com/nrfhq/chatkeep/pkg/logger"
	"github.com/nrfhq/chatkeep/pkg/store"
)

// Backend routes.
const (
	chatPath     = "/api/chat"
	sessionsPath = "/api/sessions"
)

// maxErrorBodySize bounds how much of an error body is read.
const maxErrorBodySize = 64 << 10

// client implements the Client interface over net/http.
type client struct {
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

// New creates a backend client.
//
// Returns ErrMissingBaseURL when no base URL is configured: local
// session operations work without a backend, but a client cannot
// be built.
func New(cfg Config, log logger.Logger) (Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrMissingBaseURL
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base URL %q: %w", cfg.BaseURL, err)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log,
	}, nil
}

// Send implements Client.Send.
func (c *client) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	if req.History == nil {
		req.History = []ContextMessage{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("chat request failed before a response arrived", "error", err)
		return nil, ErrNoResponse
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.responseError(resp, chatPath)
	}

	var out SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}

	c.logger.Debug("chat reply received",
		"session_id", out.SessionID,
		"reply_len", len(out.Reply))

	return &out, nil
}

// ListSessions implements Client.ListSessions.
func (c *client) ListSessions(ctx context.Context) ([]RemoteSession, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+sessionsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build session listing request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, ErrNoResponse
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.responseError(resp, sessionsPath)
	}

	var sessions []RemoteSession
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("failed to decode session listing: %w", err)
	}

	// Fill placeholders for absent optional fields.
	for i := range sessions {
		if sessions[i].Name == "" {
			sessions[i].Name = DefaultRemoteName
		}
		if sessions[i].LastMessagePreview == "" {
			sessions[i].LastMessagePreview = store.EmptyPreview
		}
	}

	return sessions, nil
}

// DeleteSession implements Client.DeleteSession.
func (c *client) DeleteSession(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptySessionID
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+sessionsPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("failed to build session delete request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ErrNoResponse
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.responseError(resp, sessionsPath)
	}

	c.logger.Info("remote session deleted", "session_id", id)
	return nil
}

// responseError turns a non-2xx response into an error whose message
// is fit for a transcript entry.
//
// Extraction priority:
//  1. 404 on the chat endpoint: explicit endpoint-not-found diagnostic
//  2. structured JSON body: details, error, message (first non-empty)
//  3. unstructured non-empty body: templated message with status code
//  4. generic fallback with status code
func (c *client) responseError(resp *http.Response, path string) error {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if readErr != nil {
		body = nil
	}

	if resp.StatusCode == http.StatusNotFound && path == chatPath {
		return fmt.Errorf("%w (status %d): check the backend base URL",
			ErrEndpointNotFound, resp.StatusCode)
	}

	if msg := extractErrorMessage(body); msg != "" {
		return fmt.Errorf("%s", msg)
	}

	if len(bytes.TrimSpace(body)) > 0 {
		return fmt.Errorf("the service responded with an error (status %d)", resp.StatusCode)
	}

	return fmt.Errorf("the service could not be reached or responded with an error (status %d)",
		resp.StatusCode)
}

// extractErrorMessage pulls the most specific message field from a
// structured JSON error body. Returns empty string when the body is
// not a JSON object or carries none of the known fields.
func extractErrorMessage(body []byte) string {
	var parsed struct {
		Details string `json:"details"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}

	switch {
	case parsed.Details != "":
		return parsed.Details
	case parsed.Error != "":
		return parsed.Error
	case parsed.Message != "":
		return parsed.Message
	default:
		return ""
	}
}
