package response

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorInfo struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// CursorPage is the envelope for cursor-paginated lists.
type CursorPage struct {
	Items      interface{} `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
	Exhausted  bool        `json:"exhausted"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Cursor(c echo.Context, page CursorPage) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      page,
		Timestamp: now(),
	})
}

// PartialError reports a failure while still returning the data gathered before it.
func PartialError(c echo.Context, data interface{}, err error) error {
	status, info := describe(err)
	return c.JSON(status, Response{
		Success:   false,
		Data:      data,
		Error:     info,
		Timestamp: now(),
	})
}

func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return handleValidationError(c, validationErr)
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return c.JSON(httpErr.Code, Response{
			Success:   false,
			Timestamp: now(),
			Error: &ErrorInfo{
				Code:    apperrors.CodeBadRequest,
				Message: http.StatusText(httpErr.Code),
			},
		})
	}

	status, info := describe(err)
	return c.JSON(status, Response{
		Success:   false,
		Timestamp: now(),
		Error:     info,
	})
}

func describe(err error) (int, *ErrorInfo) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("Request failed: %v", appErr)
		}
		return appErr.Status, &ErrorInfo{
			Code:    appErr.Code,
			Message: appErr.Message,
		}
	}

	logger.Error("Unexpected error: %v", err)
	return http.StatusInternalServerError, &ErrorInfo{
		Code:    apperrors.CodeInternal,
		Message: "An unexpected error occurred",
	}
}

func handleValidationError(c echo.Context, validationErr validator.ValidationErrors) error {
	messages := make([]string, 0, len(validationErr))
	for _, err := range validationErr {
		field := strings.ToLower(err.Field())
		param := err.Param()

		var message string
		switch err.Tag() {
		case "required":
			message = field + " is required"
		case "min":
			message = field + " must be at least " + param
		case "max":
			message = field + " must be at most " + param
		case "oneof":
			message = field + " must be one of: " + param
		case "email":
			message = field + " must be a valid email address"
		case "url":
			message = field + " must be a valid URL"
		default:
			message = field + " is invalid"
		}
		messages = append(messages, message)
	}

	message := "Invalid input data"
	if len(messages) > 0 {
		message = messages[0]
	}

	return c.JSON(http.StatusBadRequest, Response{
		Success:   false,
		Timestamp: now(),
		Error: &ErrorInfo{
			Code:    apperrors.CodeValidationFailed,
			Message: message,
			Details: messages,
		},
	})
}
