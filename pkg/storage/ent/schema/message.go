// Package schema declares the relational tables backing the SQL drivers.
//
// Tables are declared directly against ent's migration engine instead of
// through generated entities: the message store needs one table and two
// statements, which the dialect builders cover.
package schema

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Column names of the messages table.
const (
	MessagesTableName = "messages"

	ColumnID        = "id"
	ColumnChatID    = "chat_id"
	ColumnUserID    = "user_id"
	ColumnText      = "text"
	ColumnRole      = "role"
	ColumnType      = "type"
	ColumnCreatedAt = "created_at"
)

// MessageColumns lists the columns in select order.
var MessageColumns = []string{
	ColumnID,
	ColumnChatID,
	ColumnUserID,
	ColumnText,
	ColumnRole,
	ColumnType,
	ColumnCreatedAt,
}

var (
	messagesColumns = []*schema.Column{
		{Name: ColumnID, Type: field.TypeString, Size: 64},
		{Name: ColumnChatID, Type: field.TypeString, Size: 255},
		{Name: ColumnUserID, Type: field.TypeString, Size: 255, Default: ""},
		{Name: ColumnText, Type: field.TypeString, Size: 2147483647},
		{Name: ColumnRole, Type: field.TypeString, Size: 32},
		{Name: ColumnType, Type: field.TypeString, Size: 32, Default: "text"},
		{Name: ColumnCreatedAt, Type: field.TypeTime},
	}

	// MessagesTable holds the chat transcript, one row per turn.
	MessagesTable = &schema.Table{
		Name:       MessagesTableName,
		Columns:    messagesColumns,
		PrimaryKey: []*schema.Column{messagesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "message_chat_id_created_at",
				Unique:  false,
				Columns: []*schema.Column{messagesColumns[1], messagesColumns[6]},
			},
		},
	}

	// Tables holds every table the SQL drivers migrate.
	Tables = []*schema.Table{
		MessagesTable,
	}
)
