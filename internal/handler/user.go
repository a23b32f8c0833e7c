package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/middleware"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/response"
)

// Profiles serves the read-only user pages.
type Profiles interface {
	Channel(ctx context.Context, username string, viewerID uint64) (*model.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID uint64) ([]model.WatchHistoryEntry, error)
}

// UserHandler serves the account endpoints of the authenticated user and
// public channel pages.
type UserHandler struct {
	sessions Sessions
	profiles Profiles
	tempDir  string
}

func NewUserHandler(sessions Sessions, profiles Profiles, tempDir string) *UserHandler {
	if sessions == nil || profiles == nil {
		panic("nil dependency passed to NewUserHandler")
	}
	return &UserHandler{sessions: sessions, profiles: profiles, tempDir: tempDir}
}

type updateAccountReq struct {
	FullName string `json:"fullName" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
}

func (h *UserHandler) CurrentUser(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return apierror.ErrUnauthorized
	}
	return response.OK(c, u, "Current user fetched successfully")
}

func (h *UserHandler) UpdateAccount(c echo.Context) error {
	var req updateAccountReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	u, err := h.sessions.UpdateAccount(ctx, middleware.UserID(c), req.FullName, req.Email)
	if err != nil {
		return err
	}
	return response.OK(c, u, "Account details updated successfully")
}

func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatar", h.sessions.UpdateAvatar, "Avatar updated successfully")
}

func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateImage(c, "coverImage", h.sessions.UpdateCoverImage, "Cover image updated successfully")
}

func (h *UserHandler) updateImage(c echo.Context, field string,
	update func(ctx context.Context, userID uint64, localPath string) (*model.User, error), msg string) error {
	path, err := saveUpload(c, field, h.tempDir)
	if err != nil {
		return err
	}
	if path == "" {
		return apierror.Validation(field + " file is missing")
	}
	ctx, cancel := requestContext(c, uploadTimeout)
	defer cancel()

	u, err := update(ctx, middleware.UserID(c), path)
	if err != nil {
		return err
	}
	return response.OK(c, u, msg)
}

// Channel: GET /users/c/:username.
func (h *UserHandler) Channel(c echo.Context) error {
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	p, err := h.profiles.Channel(ctx, c.Param("username"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return response.OK(c, p, "User channel fetched successfully")
}

func (h *UserHandler) WatchHistory(c echo.Context) error {
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	out, err := h.profiles.WatchHistory(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}
	return response.OK(c, out, "Watch history fetched successfully")
}
