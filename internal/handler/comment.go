package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/middleware"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/response"
)

type Comments interface {
	List(ctx context.Context, videoID, viewerID uint64, page, limit int) ([]model.Comment, error)
	Add(ctx context.Context, videoID, ownerID uint64, content string) (*model.Comment, error)
	Update(ctx context.Context, id, ownerID uint64, content string) (*model.Comment, error)
	Delete(ctx context.Context, id, ownerID uint64) error
}

type CommentHandler struct {
	comments Comments
}

func NewCommentHandler(comments Comments) *CommentHandler {
	if comments == nil {
		panic("nil comment service passed to NewCommentHandler")
	}
	return &CommentHandler{comments: comments}
}

type contentReq struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// List: GET /comments/:videoId?page&limit
func (h *CommentHandler) List(c echo.Context) error {
	videoID, err := paramID(c, "videoId")
	if err != nil {
		return err
	}
	page, limit, err := pageParams(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	out, err := h.comments.List(ctx, videoID, middleware.UserID(c), page, limit)
	if err != nil {
		return err
	}
	return response.OK(c, out, "Comments fetched successfully")
}

func (h *CommentHandler) Add(c echo.Context) error {
	videoID, err := paramID(c, "videoId")
	if err != nil {
		return err
	}
	var req contentReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	cm, err := h.comments.Add(ctx, videoID, middleware.UserID(c), req.Content)
	if err != nil {
		return err
	}
	return response.Created(c, cm, "Comment added successfully")
}

func (h *CommentHandler) Update(c echo.Context) error {
	id, err := paramID(c, "commentId")
	if err != nil {
		return err
	}
	var req contentReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	cm, err := h.comments.Update(ctx, id, middleware.UserID(c), req.Content)
	if err != nil {
		return err
	}
	return response.OK(c, cm, "Comment updated successfully")
}

func (h *CommentHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "commentId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	if err := h.comments.Delete(ctx, id, middleware.UserID(c)); err != nil {
		return err
	}
	return response.OK(c, struct{}{}, "Comment deleted successfully")
}
