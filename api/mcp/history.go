package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/thoughtwire/pkg/llm"
)

var (
	chatHistoryToolName    = "chat_history"
	chatHistoryDescription = "Read the persisted transcript of a chat. Returns user and assistant turns in the order they were created, optionally limited to the most recent turns."
)

// ChatHistoryInput represents the input arguments for the chat history tool.
type ChatHistoryInput struct {
	ChatID string `json:"chat_id" jsonschema:"the chat to read"`
	Limit  int    `json:"limit,omitempty" jsonschema:"return only the most recent turns (default: all)"`
}

// Turn is a single message of a transcript.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
	At   string `json:"at"`
}

// ChatHistoryOutput represents the output of the chat history tool.
type ChatHistoryOutput struct {
	ChatID string `json:"chat_id"`
	Turns  []Turn `json:"turns"`
	Count  int    `json:"count"`
}

func (s *Server) handleChatHistory(ctx context.Context, _ *mcp.CallToolRequest, input ChatHistoryInput) (*mcp.CallToolResult, ChatHistoryOutput, error) {
	logger := s.config.Logger

	if input.ChatID == "" {
		return errorResult("chat_id is required"), ChatHistoryOutput{}, nil
	}

	logger.Debug("MCP chat history request",
		"chat_id", input.ChatID,
		"limit", input.Limit,
	)

	msgs, err := s.config.Storer.ListMessages(ctx, input.ChatID)
	if err != nil {
		logger.Error("failed to list messages", "chat_id", input.ChatID, "error", err)
		return errorResult(fmt.Sprintf("Failed to read chat history: %v", err)), ChatHistoryOutput{}, nil
	}

	output := buildChatHistory(input.ChatID, msgs, input.Limit)

	// Structured output is mirrored as JSON text for clients that only
	// read content blocks.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal chat history", "error", err)
		return errorResult(fmt.Sprintf("Failed to serialize history: %v", err)), ChatHistoryOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func buildChatHistory(chatID string, msgs []*llm.ChatMessage, limit int) ChatHistoryOutput {
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, Turn{
			Role: m.Role,
			Text: m.Text,
			At:   m.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	return ChatHistoryOutput{
		ChatID: chatID,
		Turns:  turns,
		Count:  len(turns),
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
