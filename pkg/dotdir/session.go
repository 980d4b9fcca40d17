package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	sessionFile = "session.json"
)

// ChatSession is the chat the chat command resumes when no chat id is given.
type ChatSession struct {
	// ChatID identifies the conversation on the relay and API.
	ChatID string `json:"chat_id"`

	// UserID is sent with every query of the session.
	UserID string `json:"user_id,omitempty"`

	// StartedAt is when the session was first saved.
	StartedAt time.Time `json:"started_at"`
}

// LoadChatSession loads the session from a target .thoughtwire/session.json.
// Returns nil, nil if no session has been saved.
func (m *Manager) LoadChatSession(overrideDir string) (*ChatSession, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, sessionFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading chat session: %w", err)
	}

	session := &ChatSession{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("parsing chat session: %w", err)
	}
	if session.ChatID == "" {
		return nil, errors.New("parsing chat session: missing chat_id")
	}

	return session, nil
}

// SaveChatSession persists the session, creating ~/.thoughtwire/ if needed.
func (m *Manager) SaveChatSession(session *ChatSession, overrideDir string) error {
	if session == nil {
		return errors.New("cannot save nil chat session")
	}

	dir, err := m.EnsureTarget(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling chat session: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, sessionFile), data, 0o600); err != nil {
		return fmt.Errorf("writing chat session: %w", err)
	}

	return nil
}

// ClearChatSession removes the session file so the next chat starts a new
// conversation. Returns nil if there is nothing to clear.
func (m *Manager) ClearChatSession(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil || dir == "" {
		return err
	}

	if err := os.Remove(filepath.Join(dir, sessionFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing chat session: %w", err)
	}

	return nil
}
