// Package response renders the JSON envelope shared by every endpoint.
package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/apierror"
)

// Envelope wraps every response body.  Errors is only set on failures.
type Envelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

// JSON writes a success envelope with the given status.
func JSON(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, Envelope{StatusCode: status, Data: data, Message: message, Success: status < http.StatusBadRequest})
}

// OK writes a 200 success envelope.
func OK(c echo.Context, data any, message string) error {
	return JSON(c, http.StatusOK, data, message)
}

// Created writes a 201 success envelope.
func Created(c echo.Context, data any, message string) error {
	return JSON(c, http.StatusCreated, data, message)
}

// Fail writes an error envelope without going through the error handler.
// Used by middleware that short-circuits the chain.
func Fail(c echo.Context, status int, message string, details ...string) error {
	return c.JSON(status, Envelope{StatusCode: status, Message: message, Errors: details})
}

// ErrorHandler returns an echo.HTTPErrorHandler rendering classified errors
// into the envelope.  Unclassified errors become a generic 500; their cause
// is logged, never sent.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, message, details := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", status,
				"err", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = Fail(c, status, message, details...)
		}
		if err != nil {
			logger.Error("write error response", "err", err)
		}
	}
}

func classify(err error) (int, string, []string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return he.Code, msg, nil
	}
	ae := apierror.As(err)
	details := ae.Details
	if len(details) == 0 && ae.Kind != apierror.KindInternal && ae.Kind != apierror.KindUpstream {
		details = []string{ae.Message}
	}
	msg := ae.Message
	if ae.Kind == apierror.KindInternal {
		msg = apierror.ErrInternal.Message
	}
	return ae.Status(), msg, details
}
