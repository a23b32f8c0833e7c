package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/middleware"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/response"
)

type Subscriptions interface {
	Toggle(ctx context.Context, subscriberID, channelID uint64) (*model.Subscription, bool, error)
	Subscribers(ctx context.Context, channelID uint64) ([]model.Subscription, error)
	Channels(ctx context.Context, subscriberID uint64) ([]model.Subscription, error)
}

type SubscriptionHandler struct {
	subs Subscriptions
}

func NewSubscriptionHandler(subs Subscriptions) *SubscriptionHandler {
	if subs == nil {
		panic("nil subscription service passed to NewSubscriptionHandler")
	}
	return &SubscriptionHandler{subs: subs}
}

// Toggle: POST /subscriptions/c/:channelId
func (h *SubscriptionHandler) Toggle(c echo.Context) error {
	channelID, err := paramID(c, "channelId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	sub, subscribed, err := h.subs.Toggle(ctx, middleware.UserID(c), channelID)
	if err != nil {
		return err
	}
	if subscribed {
		return response.Created(c, sub, "Subscribed successfully")
	}
	return response.OK(c, struct{}{}, "Unsubscribed successfully")
}

// Subscribers: GET /subscriptions/c/:channelId
func (h *SubscriptionHandler) Subscribers(c echo.Context) error {
	channelID, err := paramID(c, "channelId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	out, err := h.subs.Subscribers(ctx, channelID)
	if err != nil {
		return err
	}
	return response.OK(c, out, "Subscribers fetched successfully")
}

// Channels: GET /subscriptions/u/:subscriberId
func (h *SubscriptionHandler) Channels(c echo.Context) error {
	subscriberID, err := paramID(c, "subscriberId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	out, err := h.subs.Channels(ctx, subscriberID)
	if err != nil {
		return err
	}
	return response.OK(c, out, "Subscribed channels fetched successfully")
}
