package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vidtube/internal/apierror"
)

func render(t *testing.T, err error) (*httptest.ResponseRecorder, Envelope, string) {
	t.Helper()
	var logs bytes.Buffer
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(slog.New(slog.NewTextHandler(&logs, nil)))
	e.GET("/x", func(echo.Context) error { return err })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env, logs.String()
}

func TestErrorHandler_Classified(t *testing.T) {
	rec, env, logs := render(t, fmt.Errorf("refresh: %w", apierror.ErrTokenReused))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, env.StatusCode)
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	assert.Equal(t, apierror.ErrTokenReused.Message, env.Message)
	assert.Empty(t, logs)
}

func TestErrorHandler_ValidationDetails(t *testing.T) {
	rec, env, _ := render(t, apierror.Validation("validation failed", "email: must be a valid email", "password: is required"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"email: must be a valid email", "password: is required"}, env.Errors)
}

func TestErrorHandler_UnknownErrorIsHidden(t *testing.T) {
	rec, env, logs := render(t, errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apierror.ErrInternal.Message, env.Message)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, logs, "connection refused")
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	rec, env, _ := render(t, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request Entity Too Large"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request Entity Too Large", env.Message)
}

func TestSuccessEnvelope(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, Created(c, map[string]int{"id": 1}, "created"))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"statusCode":201,"data":{"id":1},"message":"created","success":true}`, rec.Body.String())
}
