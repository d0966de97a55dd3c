// Package apperr is the error taxonomy shared by services and handlers.
// Operations return a typed *Error; the single translator in HTTPErrorHandler
// maps it to a status code and a {success:false, message} body at the
// transport edge.
package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/collegedash/college_dashboard/internal/logging"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	Unauthorized
	Forbidden
	NotFound
	Conflict
	Database
)

func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap keeps the underlying cause for logs while the client only ever sees
// the message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// HTTPErrorHandler normalizes every failure escaping a handler into the
// {success:false, message} response shape. Unknown errors fall through as a
// generic 500 so internals never leak.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"

	var appErr *Error
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		status = appErr.Kind.Status()
		message = appErr.Message
	case errors.As(err, &httpErr):
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	}

	logging.FromContext(c.Request().Context()).Error("request failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"status", status,
		"error", err,
	)

	if jsonErr := c.JSON(status, echo.Map{
		"success": false,
		"message": message,
	}); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}
