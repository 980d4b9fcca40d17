package storage

import "errors"

// ErrInvalidMessage is returned when a message is missing required fields.
var ErrInvalidMessage = errors.New("invalid message: id and chat_id are required")

// PersistenceError wraps a failed write. The relay logs it and keeps
// streaming; it is never surfaced to the browser.
type PersistenceError struct {
	Op     string
	ChatID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return "failed to " + e.Op + " for chat " + e.ChatID + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Validate reports ErrInvalidMessage when a message cannot be stored.
func Validate(id, chatID string) error {
	if id == "" || chatID == "" {
		return ErrInvalidMessage
	}
	return nil
}
