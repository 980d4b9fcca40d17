package llm

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageTypeText is the only message type written by the relay.
const MessageTypeText = "text"

// ChatMessage is one persisted turn of a conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	UserID    string    `json:"user_id,omitempty"`
	Text      string    `json:"text"`
	Role      string    `json:"role"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserMessage builds the user turn for q.
func NewUserMessage(q ChatQuery) *ChatMessage {
	return newMessage(q, RoleUser, q.UserQuery)
}

// NewAssistantMessage builds the assistant turn answering q.
func NewAssistantMessage(q ChatQuery, text string) *ChatMessage {
	return newMessage(q, RoleAssistant, text)
}

func newMessage(q ChatQuery, role, text string) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.NewString(),
		ChatID:    q.ChatID,
		UserID:    q.UserID,
		Text:      text,
		Role:      role,
		Type:      MessageTypeText,
		CreatedAt: time.Now().UTC(),
	}
}
