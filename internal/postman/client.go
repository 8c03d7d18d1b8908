package postman

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"postman-sync/internal/logger"
)

// DefaultBaseURL is the public Postman API endpoint
const DefaultBaseURL = "https://api.getpostman.com"

// Lookup misses that callers treat as expected branches, not failures.
var (
	ErrSpecNotFound        = errors.New("spec not found by name")
	ErrCollectionNotFound  = errors.New("collection not found by name")
	ErrEnvironmentNotFound = errors.New("environment not found by name")
)

// StatusError reports a non-2xx response from the remote service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("postman api returned status %d: %s", e.StatusCode, e.Body)
}

// TimeoutError reports that a polled resource never became visible within
// the attempt cap.
type TimeoutError struct {
	What     string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s after %d attempts", e.What, e.Attempts)
}

// ClientConfig holds everything the client needs for a workspace.
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	Workspace string
	Timeout   time.Duration
	Poll      PollConfig
}

// Client talks to the Postman API for a single workspace.
type Client struct {
	baseURL   string
	apiKey    string
	workspace string
	poll      PollConfig
	client    *http.Client
	logger    *logger.Logger
}

// NewClient creates a new instance of Client
func NewClient(config ClientConfig, log *logger.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Poll.Interval == 0 {
		config.Poll.Interval = 2 * time.Second
	}
	if config.Poll.Attempts == 0 {
		config.Poll.Attempts = 15
	}
	return &Client{
		baseURL:   config.BaseURL,
		apiKey:    config.APIKey,
		workspace: config.Workspace,
		poll:      config.Poll,
		client:    &http.Client{Timeout: config.Timeout},
		logger:    log,
	}
}

// do issues one JSON round trip against the remote service. A non-2xx
// response surfaces as a StatusError carrying the status and body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logCall(method, path, 0, err)
		return fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logCall(method, path, resp.StatusCode, nil)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response from %s %s: %w", method, path, err)
		}
	}
	return nil
}

// logCall records the call in the run log when one is attached
func (c *Client) logCall(method, path string, status int, err error) {
	if c.logger != nil {
		c.logger.LogAPICall(method, path, status, err)
	}
}

// warnf records a non-fatal warning in the run log when one is attached
func (c *Client) warnf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warnf(format, args...)
	}
}
