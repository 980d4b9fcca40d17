// Package llm holds the wire and entity types shared by the relay, its
// storage collaborators, and clients.
package llm

import (
	"errors"
	"strings"
)

// ErrMissingUserQuery is returned when a ChatQuery has no user_query.
var ErrMissingUserQuery = errors.New("user_query is required")

// ChatQuery is the inbound request body, accepted by the relay and forwarded
// as-is to the upstream model service.
type ChatQuery struct {
	// UserQuery is the user's prompt. Required.
	UserQuery string `json:"user_query"`

	// ChatID identifies the conversation. When empty, nothing is persisted.
	ChatID string `json:"chat_id,omitempty"`

	// UserID identifies the author of the query.
	UserID string `json:"user_id,omitempty"`
}

// Validate reports whether the query can be relayed.
func (q ChatQuery) Validate() error {
	if strings.TrimSpace(q.UserQuery) == "" {
		return ErrMissingUserQuery
	}
	return nil
}

// Persistent reports whether turns for this query should be saved.
func (q ChatQuery) Persistent() bool {
	return q.ChatID != ""
}
