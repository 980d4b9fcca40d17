// Package inmemory provides an in-memory storage driver. Contents are lost
// when the process exits.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/papercomputeco/thoughtwire/pkg/llm"
	"github.com/papercomputeco/thoughtwire/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	mu    sync.RWMutex
	ids   map[string]struct{}
	chats map[string][]*llm.ChatMessage
}

// NewDriver creates a new in-memory storer.
func NewDriver() *Driver {
	return &Driver{
		ids:   make(map[string]struct{}),
		chats: make(map[string][]*llm.ChatMessage),
	}
}

// InsertMessage stores a copy of msg.
func (d *Driver) InsertMessage(_ context.Context, msg *llm.ChatMessage) error {
	if msg == nil {
		return storage.ErrInvalidMessage
	}
	if err := storage.Validate(msg.ID, msg.ChatID); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.ids[msg.ID]; ok {
		return fmt.Errorf("message %s already exists", msg.ID)
	}

	cp := *msg
	d.ids[msg.ID] = struct{}{}
	d.chats[msg.ChatID] = append(d.chats[msg.ChatID], &cp)
	return nil
}

// ListMessages returns copies of the chat's messages, oldest first.
func (d *Driver) ListMessages(_ context.Context, chatID string) ([]*llm.ChatMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stored := d.chats[chatID]
	out := make([]*llm.ChatMessage, 0, len(stored))
	for _, m := range stored {
		cp := *m
		out = append(out, &cp)
	}

	// Stable: insertion order breaks ties on equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Count returns the total number of stored messages.
func (d *Driver) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.ids)
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
