package server

import (
	"time"

	"squadup/internal/models"

	"github.com/gofiber/fiber/v2"
)

// OpenChatRequest names the other participant of a direct chat.
type OpenChatRequest struct {
	UserID uint `json:"user_id"`
}

// SendMessageRequest is the body of POST /api/chats/:chatId/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// GetChats handles GET /api/chats
func (s *Server) GetChats(c *fiber.Ctx) error {
	chats, err := s.chatService.ListChats(c.UserContext(), actorFrom(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(chats)
}

// OpenChat handles POST /api/chats
// @Summary Get or create a direct chat
// @Tags chat
// @Accept json
// @Produce json
// @Param request body OpenChatRequest true "Other participant"
// @Success 200 {object} models.Chat
// @Router /chats [post]
// @Security BearerAuth
func (s *Server) OpenChat(c *fiber.Ctx) error {
	var req OpenChatRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	chat, err := s.chatService.GetOrCreateChat(c.UserContext(), actorFrom(c), req.UserID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(chat)
}

// GetMessages handles GET /api/chats/:chatId/messages?limit=&before=
func (s *Server) GetMessages(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return models.RespondWithAppError(c, models.NewValidationError("before must be an RFC 3339 timestamp"))
		}
		before = &t
	}

	msgs, err := s.chatService.ListMessages(c.UserContext(), actorFrom(c), c.Params("chatId"), page.Limit, before)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(msgs)
}

// SendMessage handles POST /api/chats/:chatId/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	msg, err := s.chatService.SendMessage(c.UserContext(), actorFrom(c), c.Params("chatId"), req.Content)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
