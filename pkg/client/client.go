// Package client talks to the relay and the history API from a terminal. It
// decodes relay streams with the same sse.Decode loop the relay uses on the
// upstream side.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/thoughtwire/pkg/llm"
	"github.com/papercomputeco/thoughtwire/pkg/logger"
	"github.com/papercomputeco/thoughtwire/pkg/sse"
)

const chatPath = "/api/chat"

// Config configures a Client.
type Config struct {
	// RelayTarget is the relay base URL (e.g., "http://localhost:8080").
	RelayTarget string

	// APITarget is the history API base URL (e.g., "http://localhost:8081").
	APITarget string

	// HTTPClient overrides the default client. Streams can run for minutes,
	// so the default client has no overall timeout and relies on ctx.
	HTTPClient *http.Client

	// Logger is the provided slog logger.
	Logger *slog.Logger
}

// Client is a relay and history API client.
type Client struct {
	relayTarget string
	apiTarget   string
	httpClient  *http.Client
	logger      *slog.Logger
}

// StatusError is returned when the relay or API rejects a request before
// streaming starts.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// New creates a Client.
func New(c Config) *Client {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	return &Client{
		relayTarget: strings.TrimRight(c.RelayTarget, "/"),
		apiTarget:   strings.TrimRight(c.APITarget, "/"),
		httpClient:  httpClient,
		logger:      l,
	}
}

// Stream posts q to the relay and hands every decoded event to sink in
// arrival order. It returns once the relay sends [DONE], the stream ends, or
// ctx is cancelled; cancelling ctx closes the connection, which the relay
// observes as a browser abort.
func (c *Client) Stream(ctx context.Context, q llm.ChatQuery, sink sse.Sink) (sse.Result, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return sse.Result{}, fmt.Errorf("marshaling query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayTarget+chatPath, bytes.NewReader(body))
	if err != nil {
		return sse.Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	c.logger.Debug("sending chat query",
		"relay_target", c.relayTarget,
		"chat_id", q.ChatID,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return sse.Result{}, fmt.Errorf("sending request to relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sse.Result{}, readStatusError(resp)
	}

	res, err := sse.Decode(ctx, resp.Body, sink, sse.WithLogger(c.logger))
	c.logger.Debug("chat stream finished",
		"duration", time.Since(start),
		"events", res.Events,
		"dropped_lines", res.Dropped,
		"done_sentinel", res.Done,
	)
	if err != nil {
		return res, fmt.Errorf("reading relay stream: %w", err)
	}
	return res, nil
}

type historyResponse struct {
	ChatID   string             `json:"chat_id"`
	Messages []*llm.ChatMessage `json:"messages"`
}

// History fetches the persisted transcript of chatID, oldest first. A
// positive limit keeps only the most recent messages.
func (c *Client) History(ctx context.Context, chatID string, limit int) ([]*llm.ChatMessage, error) {
	u := c.apiTarget + "/chats/" + url.PathEscape(chatID) + "/messages"
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(resp)
	}

	var hr historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	return hr.Messages, nil
}

// readStatusError builds a StatusError, preferring the server's JSON error
// message over the raw body.
func readStatusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var er llm.ErrorResponse
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &er) == nil && er.Error != "" {
		msg = er.Error
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}
