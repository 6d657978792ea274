package utils

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// CursorParams represents cursor pagination parameters
type CursorParams struct {
	Cursor string
	Limit  int
}

// GetCursorParams extracts the opaque cursor and an optional limit from the request.
// A limit outside (0, maxLimit] falls back to defaultLimit.
func GetCursorParams(c echo.Context, defaultLimit, maxLimit int) CursorParams {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	return CursorParams{
		Cursor: strings.TrimSpace(c.QueryParam("cursor")),
		Limit:  limit,
	}
}

// GetBoolParam parses an optional boolean query parameter; absent or malformed yields nil.
func GetBoolParam(c echo.Context, name string) *bool {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
