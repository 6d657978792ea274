package handler

import (
	"context"
	stderrors "errors"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/domain/entity"
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/internal/usecase"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
	"foodshare/pkg/response"
)

// LiveConversation is an activated conversation view; *usecase.Synchronizer implements it.
type LiveConversation interface {
	Header() usecase.ConversationHeader
	Updates() <-chan usecase.SyncEvent
	Send(ctx context.Context, text string) (*entity.Message, error)
	Close()
}

type ConversationOpener interface {
	OpenConversation(ctx context.Context, userID, conversationID string) (*usecase.Synchronizer, error)
}

type openFunc func(ctx context.Context, userID, conversationID string) (LiveConversation, error)

type WebSocketHandler struct {
	wsManager *ws.Manager
	open      openFunc
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, chat ConversationOpener) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager: wsManager,
		open: func(ctx context.Context, userID, conversationID string) (LiveConversation, error) {
			synchronizer, err := chat.OpenConversation(ctx, userID, conversationID)
			if err != nil {
				return nil, err
			}
			return synchronizer, nil
		},
	}
}

// HandleConversation keeps one conversation view live for the connection's lifetime.
// Activation errors are returned as JSON before the upgrade.
func (h *WebSocketHandler) HandleConversation(c echo.Context) error {
	userID := middleware.GetUID(c)
	if userID == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}
	conversationID := c.Param("id")

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	defer cancel()

	synchronizer, err := h.open(ctx, userID, conversationID)
	if err != nil {
		return response.Error(c, err)
	}
	defer synchronizer.Close()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket: upgrade failed for %s: %v", userID, err)
		return nil
	}

	client := ws.NewClient(userID, conn)
	if !h.wsManager.Add(client) {
		conn.Close()
		return nil
	}

	go forwardUpdates(client, synchronizer, conversationID)
	go client.WritePump()

	client.ReadPump(h.wsManager, func(cl *ws.Client, frame ws.Frame) {
		if frame.Type != ws.FrameTypeSendMessage {
			cl.SendError(errors.CodeBadRequest, "Unsupported frame type: "+frame.Type)
			return
		}
		if _, err := synchronizer.Send(ctx, frame.Text); err != nil {
			code, message := describeError(err)
			cl.SendError(code, message)
		}
	})

	return nil
}

// forwardUpdates relays synchronizer events until Close ends the stream.
func forwardUpdates(client *ws.Client, synchronizer LiveConversation, conversationID string) {
	for event := range synchronizer.Updates() {
		switch event.Type {
		case usecase.SyncSnapshot:
			client.SendFrame(ws.FrameTypeSnapshot, conversationID, usecase.ConversationView{
				ConversationHeader: synchronizer.Header(),
				Messages:           event.Messages,
			})
		case usecase.SyncMessageAdded:
			client.SendFrame(ws.FrameTypeMessageAdded, conversationID, event.Message)
		case usecase.SyncMessageModified:
			client.SendFrame(ws.FrameTypeMessageModified, conversationID, event.Message)
		case usecase.SyncFailed:
			code, message := describeError(event.Err)
			client.SendFrame(ws.FrameTypeError, conversationID, ws.ErrorData{Code: code, Message: message})
		}
	}
}

func describeError(err error) (string, string) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code, appErr.Message
	}
	return errors.CodeInternal, "An unexpected error occurred"
}
