// Package upstream provides the client for the model service that produces
// narration streams.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/thoughtwire/pkg/llm"
	"github.com/papercomputeco/thoughtwire/pkg/logger"
)

const (
	// DefaultPath is appended to the base URL when Config.Path is empty.
	DefaultPath = "/chat/stream"

	// DefaultTimeout bounds an entire upstream exchange, including the time
	// spent streaming the body. Reasoning models can narrate for a long time.
	DefaultTimeout = 5 * time.Minute

	// maxErrorBody caps how much of a non-2xx body is kept for the error.
	maxErrorBody = 64 * 1024
)

// Config configures a Client.
type Config struct {
	// BaseURL is the model service address (e.g., "http://localhost:8000").
	// An empty BaseURL makes every Stream call fail with ConfigurationError.
	BaseURL string

	// Path is the streaming endpoint path. Defaults to DefaultPath.
	Path string

	// Timeout overrides DefaultTimeout. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	// Logger is the provided slog logger.
	Logger *slog.Logger
}

// Client issues narration requests to the model service.
type Client struct {
	baseURL    string
	path       string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client. It never fails: a missing BaseURL is reported per
// request so that the relay can surface it in-band.
func New(c Config) *Client {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"),
		path:       path,
		httpClient: httpClient,
		logger:     l,
	}
}

// CheckConfig returns ConfigurationError when no base address is configured.
func (c *Client) CheckConfig() error {
	if c.baseURL == "" {
		return ConfigurationError{}
	}
	return nil
}

// URL returns the full streaming endpoint address.
func (c *Client) URL() string {
	return c.baseURL + c.path
}

// Stream posts q to the model service and returns its event-stream body.
// The caller must close the returned body; cancelling ctx aborts the read and
// releases the connection.
//
// extra carries caller headers to forward (e.g., Authorization). Accept and
// Content-Type are always set by Stream.
func (c *Client) Stream(ctx context.Context, q llm.ChatQuery, extra http.Header) (io.ReadCloser, error) {
	if err := c.CheckConfig(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating upstream request: %w", err)
	}

	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	c.logger.Debug("forwarding query to upstream",
		"url", c.URL(),
		"chat_id", q.ChatID,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		c.logger.Error("upstream returned error",
			"status", resp.StatusCode,
			"body", string(respBody),
		)
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	return resp.Body, nil
}
