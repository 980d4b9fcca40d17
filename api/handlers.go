package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/thoughtwire/pkg/llm"
)

// MessagesResponse is the body of GET /chats/:chat_id/messages.
type MessagesResponse struct {
	ChatID   string             `json:"chat_id"`
	Messages []*llm.ChatMessage `json:"messages"`
	Count    int                `json:"count"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListMessages returns a chat's transcript, oldest first. The optional
// "limit" query parameter keeps only the most recent messages.
func (s *Server) handleListMessages(c *fiber.Ctx) error {
	chatID := c.Params("chat_id")
	if chatID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "chat_id parameter required"})
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "limit must be a non-negative integer"})
		}
		limit = n
	}

	msgs, err := s.storer.ListMessages(c.Context(), chatID)
	if err != nil {
		s.logger.Error("failed to list messages", "chat_id", chatID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list messages"})
	}

	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	return c.JSON(MessagesResponse{
		ChatID:   chatID,
		Messages: msgs,
		Count:    len(msgs),
	})
}
