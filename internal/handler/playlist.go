package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/middleware"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/response"
)

type Playlists interface {
	Create(ctx context.Context, ownerID uint64, name, description string) (*model.Playlist, error)
	Get(ctx context.Context, id uint64) (*model.Playlist, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Playlist, error)
	Update(ctx context.Context, id, ownerID uint64, name, description string) (*model.Playlist, error)
	Delete(ctx context.Context, id, ownerID uint64) error
	AddVideo(ctx context.Context, playlistID, ownerID, videoID uint64) (*model.Playlist, error)
	RemoveVideo(ctx context.Context, playlistID, ownerID, videoID uint64) (*model.Playlist, error)
}

type PlaylistHandler struct {
	playlists Playlists
}

func NewPlaylistHandler(playlists Playlists) *PlaylistHandler {
	if playlists == nil {
		panic("nil playlist service passed to NewPlaylistHandler")
	}
	return &PlaylistHandler{playlists: playlists}
}

type createPlaylistReq struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
}

type updatePlaylistReq struct {
	Name        string `json:"name" validate:"max=255"`
	Description string `json:"description" validate:"max=5000"`
}

func (h *PlaylistHandler) Create(c echo.Context) error {
	var req createPlaylistReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	p, err := h.playlists.Create(ctx, middleware.UserID(c), req.Name, req.Description)
	if err != nil {
		return err
	}
	return response.Created(c, p, "Playlist created successfully")
}

func (h *PlaylistHandler) ListByUser(c echo.Context) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	out, err := h.playlists.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	return response.OK(c, out, "Playlists fetched successfully")
}

func (h *PlaylistHandler) Get(c echo.Context) error {
	id, err := paramID(c, "playlistId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	p, err := h.playlists.Get(ctx, id)
	if err != nil {
		return err
	}
	return response.OK(c, p, "Playlist fetched successfully")
}

func (h *PlaylistHandler) Update(c echo.Context) error {
	id, err := paramID(c, "playlistId")
	if err != nil {
		return err
	}
	var req updatePlaylistReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	p, err := h.playlists.Update(ctx, id, middleware.UserID(c), req.Name, req.Description)
	if err != nil {
		return err
	}
	return response.OK(c, p, "Playlist updated successfully")
}

func (h *PlaylistHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "playlistId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	if err := h.playlists.Delete(ctx, id, middleware.UserID(c)); err != nil {
		return err
	}
	return response.OK(c, struct{}{}, "Playlist deleted successfully")
}

// AddVideo: PATCH /playlist/add/:videoId/:playlistId
func (h *PlaylistHandler) AddVideo(c echo.Context) error {
	return h.membership(c, h.playlists.AddVideo, "Video added to playlist")
}

// RemoveVideo: PATCH /playlist/remove/:videoId/:playlistId
func (h *PlaylistHandler) RemoveVideo(c echo.Context) error {
	return h.membership(c, h.playlists.RemoveVideo, "Video removed from playlist")
}

func (h *PlaylistHandler) membership(c echo.Context,
	op func(ctx context.Context, playlistID, ownerID, videoID uint64) (*model.Playlist, error), msg string) error {
	videoID, err := paramID(c, "videoId")
	if err != nil {
		return err
	}
	playlistID, err := paramID(c, "playlistId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	p, err := op(ctx, playlistID, middleware.UserID(c), videoID)
	if err != nil {
		return err
	}
	return response.OK(c, p, msg)
}
