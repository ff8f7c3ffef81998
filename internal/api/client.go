// Package api is a stateless client for the todo REST service.
//
// Every operation is a single attempt: no retry, no backoff. A failed
// call returns one of the errors in errors.go and leaves no trace in
// the caller's state; callers only apply results that came back from a
// 2xx response.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todoq/internal/model"
)

// RequestTimeout bounds every API call.
const RequestTimeout = 10 * time.Second

// HeaderAPIKey carries the credential on authenticated calls.
const HeaderAPIKey = "X-API-Key"

// HeaderRequestID correlates a request with its log lines.
const HeaderRequestID = "X-Request-Id"

// Client issues authenticated requests against a single base URL.
// It holds no session state; the credential is an argument to every
// authenticated operation.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *log.Logger
}

// New creates a client for the service at baseURL.
func New(baseURL string, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: RequestTimeout},
		log:     logger,
	}
}

// NewWithHTTPClient creates a client with a custom http.Client (tests).
func NewWithHTTPClient(baseURL string, httpc *http.Client, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
		log:     logger,
	}
}

// Register creates an account and returns the issued credential.
// The username is trimmed; an empty result is rejected before any call.
func (c *Client) Register(ctx context.Context, username string) (model.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.Session{}, &InvalidInputError{Field: "username", Reason: "must not be empty"}
	}

	var sess model.Session
	err := c.do(ctx, http.MethodPost, "/register", "", map[string]string{"username": username}, &sess)
	if err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

// ListTodos returns the account's todos in server order.
func (c *Client) ListTodos(ctx context.Context, key string) ([]model.Todo, error) {
	if key == "" {
		return nil, ErrUnauthenticated
	}
	var todos []model.Todo
	if err := c.do(ctx, http.MethodGet, "/todos", key, nil, &todos); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

// CreateTodo creates a todo and returns the server's copy of it.
// The title is trimmed; an empty result is rejected before any call.
func (c *Client) CreateTodo(ctx context.Context, key, title string) (model.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Todo{}, &InvalidInputError{Field: "title", Reason: "must not be empty"}
	}
	if key == "" {
		return model.Todo{}, ErrUnauthenticated
	}
	var todo model.Todo
	err := c.do(ctx, http.MethodPost, "/todos", key, map[string]string{"title": title}, &todo)
	if err != nil {
		return model.Todo{}, err
	}
	return todo, nil
}

// UpdateTodo sets the done flag of a todo. The returned copy is
// authoritative and replaces the local one wholesale.
func (c *Client) UpdateTodo(ctx context.Context, key string, id int64, done bool) (model.Todo, error) {
	if key == "" {
		return model.Todo{}, ErrUnauthenticated
	}
	var todo model.Todo
	path := fmt.Sprintf("/todos/%d", id)
	err := c.do(ctx, http.MethodPut, path, key, map[string]bool{"done": done}, &todo)
	if err != nil {
		return model.Todo{}, err
	}
	return todo, nil
}

// DeleteTodo removes a todo. The service answers with no body.
func (c *Client) DeleteTodo(ctx context.Context, key string, id int64) error {
	if key == "" {
		return ErrUnauthenticated
	}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/todos/%d", id), key, nil, nil)
}

// GetStats returns the server-computed stats snapshot.
func (c *Client) GetStats(ctx context.Context, key string) (model.Stats, error) {
	if key == "" {
		return model.Stats{}, ErrUnauthenticated
	}
	var stats model.Stats
	if err := c.do(ctx, http.MethodGet, "/stats", key, nil, &stats); err != nil {
		return model.Stats{}, err
	}
	return stats, nil
}

// do runs one request/response cycle. A nil out skips body decoding
// (delete answers 204 with no body).
func (c *Client) do(ctx context.Context, method, path, key string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(HeaderRequestID, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(HeaderAPIKey, key)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Error("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("read response", "method", method, "path", path, "request_id", reqID, "err", err)
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{
			Status: resp.StatusCode,
			Body:   string(raw),
			Detail: extractDetail(raw),
		}
		c.log.Error("service error",
			"method", method, "path", path, "request_id", reqID,
			"status", resp.StatusCode, "body", se.Body)
		return se
	}

	c.log.Debug("request ok", "method", method, "path", path, "request_id", reqID, "status", resp.StatusCode)

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// extractDetail pulls the service's {"detail": "..."} message when the
// error body carries one.
func extractDetail(raw []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Detail
}
