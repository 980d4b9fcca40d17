// Package storage defines the persistence boundary for chat transcripts.
package storage

import (
	"context"

	"github.com/papercomputeco/thoughtwire/pkg/llm"
)

// Driver persists and retrieves chat messages in a storage backend.
//
// The relay writes at most two messages per turn: the user message before the
// model service is contacted and the assistant message once its narration
// completes. Implementations must be safe for concurrent use since every
// in-flight stream session shares one Driver.
type Driver interface {
	// InsertMessage stores a single message. The message ID must be unique.
	InsertMessage(ctx context.Context, msg *llm.ChatMessage) error

	// ListMessages returns the messages of a chat ordered by creation time.
	// An unknown chat yields an empty slice, not an error.
	ListMessages(ctx context.Context, chatID string) ([]*llm.ChatMessage, error)

	// Close closes the store and releases any resources.
	Close() error
}
