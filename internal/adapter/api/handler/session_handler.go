package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/domain/entity"
	"foodshare/pkg/response"
)

type SessionService interface {
	SignIn(ctx context.Context, session *entity.Session) (*entity.User, error)
	SignOut(ctx context.Context, session *entity.Session) error
	CurrentUser(ctx context.Context, session *entity.Session) (*entity.User, error)
}

type SessionHandler struct {
	sessions SessionService
}

func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

// SignIn records the caller's profile from their verified Firebase ID token.
func (h *SessionHandler) SignIn(c echo.Context) error {
	user, err := h.sessions.SignIn(c.Request().Context(), middleware.GetSession(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *SessionHandler) SignOut(c echo.Context) error {
	if err := h.sessions.SignOut(c.Request().Context(), middleware.GetSession(c)); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Signed out",
	})
}

func (h *SessionHandler) GetCurrentUser(c echo.Context) error {
	user, err := h.sessions.CurrentUser(c.Request().Context(), middleware.GetSession(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}
