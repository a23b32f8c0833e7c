package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/middleware"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/response"
)

type Likes interface {
	Toggle(ctx context.Context, userID uint64, target model.LikeTarget, targetID uint64) (*model.Like, bool, error)
	LikedVideos(ctx context.Context, userID uint64) ([]model.LikedVideo, error)
}

type LikeHandler struct {
	likes Likes
}

func NewLikeHandler(likes Likes) *LikeHandler {
	if likes == nil {
		panic("nil like service passed to NewLikeHandler")
	}
	return &LikeHandler{likes: likes}
}

func (h *LikeHandler) ToggleVideo(c echo.Context) error {
	return h.toggle(c, model.LikeVideo, "videoId")
}

func (h *LikeHandler) ToggleComment(c echo.Context) error {
	return h.toggle(c, model.LikeComment, "commentId")
}

func (h *LikeHandler) ToggleTweet(c echo.Context) error {
	return h.toggle(c, model.LikeTweet, "tweetId")
}

// toggle answers 201 with the like when it was created and 200 with an
// empty object when it was removed.
func (h *LikeHandler) toggle(c echo.Context, target model.LikeTarget, param string) error {
	id, err := paramID(c, param)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	like, liked, err := h.likes.Toggle(ctx, middleware.UserID(c), target, id)
	if err != nil {
		return err
	}
	if liked {
		return response.Created(c, like, "Liked "+string(target))
	}
	return response.OK(c, struct{}{}, "Unliked "+string(target))
}

func (h *LikeHandler) LikedVideos(c echo.Context) error {
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	out, err := h.likes.LikedVideos(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}
	return response.OK(c, out, "Liked videos fetched successfully")
}
