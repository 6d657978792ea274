package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/domain/entity"
	"foodshare/internal/usecase"
	"foodshare/pkg/response"
	"foodshare/pkg/utils"
)

type ChatService interface {
	StartConversation(ctx context.Context, userID, listingID string) (*entity.Conversation, bool, error)
	ListConversations(ctx context.Context, userID string, limit int) ([]*usecase.ConversationResponse, error)
	GetMessages(ctx context.Context, userID, conversationID string) (*usecase.ConversationView, error)
	SendMessage(ctx context.Context, userID, conversationID, text string) (*entity.Message, error)
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{
		chat: chat,
	}
}

type startConversationRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// StartConversation opens the caller's conversation about a listing. An existing
// conversation is returned with 200 instead of 201.
func (h *ChatHandler) StartConversation(c echo.Context) error {
	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	conversation, created, err := h.chat.StartConversation(c.Request().Context(), middleware.GetUID(c), req.ListingID)
	if err != nil {
		return response.Error(c, err)
	}

	if created {
		return response.Created(c, conversation)
	}
	return response.Success(c, conversation)
}

// GetConversations gets the authenticated user's inbox
func (h *ChatHandler) GetConversations(c echo.Context) error {
	params := utils.GetCursorParams(c, 20, 100)

	conversations, err := h.chat.ListConversations(c.Request().Context(), middleware.GetUID(c), params.Limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

// GetMessages returns the ordered messages and marks the counterpart's messages read.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	view, err := h.chat.GetMessages(c.Request().Context(), middleware.GetUID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, view)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chat.SendMessage(c.Request().Context(), middleware.GetUID(c), c.Param("id"), req.Text)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}
