// Package eventstream defines transport-neutral notifications emitted after
// the relay persists a chat message.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/thoughtwire/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMessagePersisted is emitted after a chat message is persisted.
	EventTypeMessagePersisted = "thoughtwire.message.persisted"
)

// MessagePersistedEvent is the payload published for a persisted message.
type MessagePersistedEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	Stream        StreamMeta      `json:"stream"`
	Message       llm.ChatMessage `json:"message"`
}

// StreamMeta captures the lifecycle of the stream session that produced the
// message. It is zero for user messages.
type StreamMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Events      int       `json:"events"`
	Chunks      int       `json:"chunks"`
}

// NewMessagePersistedEvent wraps msg in a versioned event envelope.
func NewMessagePersistedEvent(msg llm.ChatMessage, meta StreamMeta) *MessagePersistedEvent {
	return &MessagePersistedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeMessagePersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Stream:        meta,
		Message:       msg,
	}
}
