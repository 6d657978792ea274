package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"foodshare/internal/domain/entity"
	"foodshare/pkg/errors"
	"foodshare/pkg/response"
)

const (
	ContextKeyUID     = "uid"
	ContextKeySession = "session"
)

// SessionResolver turns a bearer token into a resolved session.
type SessionResolver interface {
	Resolve(ctx context.Context, session *entity.Session, token string) error
}

type AuthMiddleware struct {
	sessions SessionResolver
}

func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
	}
}

// Session resolves the caller's session and stores it on the context. A missing or
// rejected token leaves the session anonymous.
func (m *AuthMiddleware) Session(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session := &entity.Session{State: entity.SessionUninitialized}
		_ = m.sessions.Resolve(c.Request().Context(), session, extractToken(c))
		store(c, session)
		return next(c)
	}
}

// Authenticate requires a signed-in session.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c)
		if token == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		session := &entity.Session{State: entity.SessionUninitialized}
		if err := m.sessions.Resolve(c.Request().Context(), session, token); err != nil {
			return response.Error(c, err)
		}
		store(c, session)

		return next(c)
	}
}

func store(c echo.Context, session *entity.Session) {
	c.Set(ContextKeySession, session)
	if uid := session.UserID(); uid != "" {
		c.Set(ContextKeyUID, uid)
	}
}

// extractToken reads "Authorization: Bearer <token>". Browsers cannot set headers on
// WebSocket upgrades, so those may pass ?token= instead.
func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if strings.EqualFold(c.Request().Header.Get("Upgrade"), "websocket") {
		return c.QueryParam("token")
	}
	return ""
}

// GetSession returns the session stored by Session or Authenticate, or an unresolved
// one when neither ran.
func GetSession(c echo.Context) *entity.Session {
	if session, ok := c.Get(ContextKeySession).(*entity.Session); ok {
		return session
	}
	return &entity.Session{State: entity.SessionUninitialized}
}

// GetUID returns the signed-in user's id, or "".
func GetUID(c echo.Context) string {
	uid, _ := c.Get(ContextKeyUID).(string)
	return uid
}
