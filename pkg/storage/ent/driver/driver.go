// Package entdriver provides a database-agnostic message store built on ent's
// SQL dialect layer. Concrete drivers (sqlite, postgres) open the connection
// and embed EntDriver.
package entdriver

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	entschema "entgo.io/ent/dialect/sql/schema"

	"github.com/papercomputeco/thoughtwire/pkg/llm"
	"github.com/papercomputeco/thoughtwire/pkg/storage"
	"github.com/papercomputeco/thoughtwire/pkg/storage/ent/schema"
)

// EntDriver provides storage operations over an ent SQL driver.
type EntDriver struct {
	Driver *entsql.Driver
}

// New wraps db for the given ent dialect (dialect.SQLite, dialect.Postgres).
func New(dialectName string, db *stdsql.DB) *EntDriver {
	return &EntDriver{Driver: entsql.OpenDB(dialectName, db)}
}

// Migrate creates or updates the schema. Changes are append-only: new tables,
// columns and indexes.
func (ed *EntDriver) Migrate(ctx context.Context) error {
	m, err := entschema.NewMigrate(ed.Driver)
	if err != nil {
		return fmt.Errorf("failed to prepare migration: %w", err)
	}
	if err := m.Create(ctx, schema.Tables...); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// InsertMessage stores a single message.
func (ed *EntDriver) InsertMessage(ctx context.Context, msg *llm.ChatMessage) error {
	if msg == nil {
		return storage.ErrInvalidMessage
	}
	if err := storage.Validate(msg.ID, msg.ChatID); err != nil {
		return err
	}

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	msgType := msg.Type
	if msgType == "" {
		msgType = llm.MessageTypeText
	}

	query, args := entsql.Dialect(ed.Driver.Dialect()).
		Insert(schema.MessagesTableName).
		Columns(schema.MessageColumns...).
		Values(msg.ID, msg.ChatID, msg.UserID, msg.Text, msg.Role, msgType, createdAt).
		Query()

	if err := ed.Driver.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListMessages returns the chat's messages, oldest first.
func (ed *EntDriver) ListMessages(ctx context.Context, chatID string) ([]*llm.ChatMessage, error) {
	selector := entsql.Dialect(ed.Driver.Dialect()).
		Select(schema.MessageColumns...).
		From(entsql.Table(schema.MessagesTableName)).
		Where(entsql.EQ(schema.ColumnChatID, chatID)).
		OrderBy(schema.ColumnCreatedAt, schema.ColumnID)
	query, args := selector.Query()

	rows := &entsql.Rows{}
	if err := ed.Driver.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*llm.ChatMessage, 0)
	for rows.Next() {
		m := &llm.ChatMessage{}
		if err := rows.Scan(&m.ID, &m.ChatID, &m.UserID, &m.Text, &m.Role, &m.Type, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.CreatedAt = m.CreatedAt.UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// Truncate removes every stored message. Intended for tests against shared
// databases.
func (ed *EntDriver) Truncate(ctx context.Context) error {
	query, args := entsql.Dialect(ed.Driver.Dialect()).
		Delete(schema.MessagesTableName).
		Query()
	return ed.Driver.Exec(ctx, query, args, nil)
}

// Close closes the underlying database.
func (ed *EntDriver) Close() error {
	if ed.Driver == nil {
		return errors.New("driver not initialized")
	}
	return ed.Driver.Close()
}
