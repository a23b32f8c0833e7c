package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/middleware"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/response"
)

type Tweets interface {
	Create(ctx context.Context, ownerID uint64, content string) (*model.Tweet, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Tweet, error)
	Update(ctx context.Context, id, ownerID uint64, content string) (*model.Tweet, error)
	Delete(ctx context.Context, id, ownerID uint64) error
}

type TweetHandler struct {
	tweets Tweets
}

func NewTweetHandler(tweets Tweets) *TweetHandler {
	if tweets == nil {
		panic("nil tweet service passed to NewTweetHandler")
	}
	return &TweetHandler{tweets: tweets}
}

func (h *TweetHandler) Create(c echo.Context) error {
	var req contentReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	t, err := h.tweets.Create(ctx, middleware.UserID(c), req.Content)
	if err != nil {
		return err
	}
	return response.Created(c, t, "Tweet created successfully")
}

func (h *TweetHandler) ListByUser(c echo.Context) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	out, err := h.tweets.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	return response.OK(c, out, "Tweets fetched successfully")
}

func (h *TweetHandler) Update(c echo.Context) error {
	id, err := paramID(c, "tweetId")
	if err != nil {
		return err
	}
	var req contentReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	t, err := h.tweets.Update(ctx, id, middleware.UserID(c), req.Content)
	if err != nil {
		return err
	}
	return response.OK(c, t, "Tweet updated successfully")
}

func (h *TweetHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "tweetId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	if err := h.tweets.Delete(ctx, id, middleware.UserID(c)); err != nil {
		return err
	}
	return response.OK(c, struct{}{}, "Tweet deleted successfully")
}
