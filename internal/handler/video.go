package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/middleware"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/repository"
	"github.com/iliyamo/vidtube/internal/response"
	"github.com/iliyamo/vidtube/internal/service"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Videos is the video catalogue behind VideoHandler.
type Videos interface {
	List(ctx context.Context, q model.VideoListQuery) (*service.VideoPage, error)
	Publish(ctx context.Context, in service.PublishVideoInput) (*model.Video, error)
	Watch(ctx context.Context, id, viewerID uint64) (*model.Video, error)
	Update(ctx context.Context, id, ownerID uint64, title, description, thumbnailPath string) (*model.Video, error)
	Delete(ctx context.Context, id, ownerID uint64) error
	TogglePublish(ctx context.Context, id, ownerID uint64) (*model.Video, error)
}

type VideoHandler struct {
	videos  Videos
	tempDir string
}

func NewVideoHandler(videos Videos, tempDir string) *VideoHandler {
	if videos == nil {
		panic("nil video service passed to NewVideoHandler")
	}
	return &VideoHandler{videos: videos, tempDir: tempDir}
}

type publishVideoReq struct {
	Title       string `json:"title" form:"title" validate:"required,max=255"`
	Description string `json:"description" form:"description" validate:"required"`
	Duration    string `json:"duration" form:"duration"`
}

type updateVideoReq struct {
	Title       string `json:"title" form:"title" validate:"required,max=255"`
	Description string `json:"description" form:"description" validate:"required"`
}

// List: GET /videos?page&limit&query&sortBy&sortType&userId
func (h *VideoHandler) List(c echo.Context) error {
	q, err := parseVideoQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	page, err := h.videos.List(ctx, q)
	if err != nil {
		return err
	}
	return response.OK(c, page, "Videos fetched successfully")
}

func parseVideoQuery(c echo.Context) (model.VideoListQuery, error) {
	q := model.VideoListQuery{
		Query:    c.QueryParam("query"),
		SortBy:   c.QueryParam("sortBy"),
		ViewerID: middleware.UserID(c),
	}
	var err error
	if q.Page, q.Limit, err = pageParams(c); err != nil {
		return q, err
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	if !repository.SortColumnAllowed(q.SortBy) {
		return q, apierror.Validation("sortBy must be one of createdAt, views, title, duration")
	}
	switch strings.ToLower(c.QueryParam("sortType")) {
	case "", "desc":
		q.SortDesc = true
	case "asc":
	default:
		return q, apierror.Validation("sortType must be asc or desc")
	}
	if raw := c.QueryParam("userId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return q, apierror.Validation("invalid userId")
		}
		q.OwnerID = id
	}
	return q, nil
}

// Publish: multipart form with videoFile and thumbnail.
func (h *VideoHandler) Publish(c echo.Context) error {
	var req publishVideoReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	var duration float64
	if req.Duration != "" {
		d, err := strconv.ParseFloat(req.Duration, 64)
		if err != nil {
			return apierror.Validation("duration must be a number of seconds")
		}
		duration = d
	}
	paths, err := saveUploads(c, h.tempDir, "videoFile", "thumbnail")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, uploadTimeout)
	defer cancel()

	v, err := h.videos.Publish(ctx, service.PublishVideoInput{
		OwnerID:       middleware.UserID(c),
		Title:         req.Title,
		Description:   req.Description,
		Duration:      duration,
		VideoPath:     paths[0],
		ThumbnailPath: paths[1],
	})
	if err != nil {
		return err
	}
	return response.Created(c, v, "Video published successfully")
}

func (h *VideoHandler) Get(c echo.Context) error {
	id, err := paramID(c, "videoId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	v, err := h.videos.Watch(ctx, id, middleware.UserID(c))
	if err != nil {
		return err
	}
	return response.OK(c, v, "Video fetched successfully")
}

// Update: title and description, optional thumbnail file.
func (h *VideoHandler) Update(c echo.Context) error {
	id, err := paramID(c, "videoId")
	if err != nil {
		return err
	}
	var req updateVideoReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	thumb, err := saveUpload(c, "thumbnail", h.tempDir)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, uploadTimeout)
	defer cancel()

	v, err := h.videos.Update(ctx, id, middleware.UserID(c), req.Title, req.Description, thumb)
	if err != nil {
		return err
	}
	return response.OK(c, v, "Video updated successfully")
}

func (h *VideoHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "videoId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	if err := h.videos.Delete(ctx, id, middleware.UserID(c)); err != nil {
		return err
	}
	return response.OK(c, struct{}{}, "Video deleted successfully")
}

func (h *VideoHandler) TogglePublish(c echo.Context) error {
	id, err := paramID(c, "videoId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	v, err := h.videos.TogglePublish(ctx, id, middleware.UserID(c))
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, v, "Publish status toggled")
}
