package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-backend/internal/service"
)

type SubscriptionHandler struct {
	Subs *service.Subscriptions
}

func NewSubscriptionHandler(subs *service.Subscriptions) *SubscriptionHandler {
	return &SubscriptionHandler{Subs: subs}
}

// Toggle subscribes the caller to :channelId or unsubscribes them.
func (h *SubscriptionHandler) Toggle(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	subscribed, err := h.Subs.Toggle(ctx, c.Param("channelId"), uid)
	if err != nil {
		return err
	}
	data := echo.Map{"subscribed": subscribed}
	if subscribed {
		return respond(c, http.StatusCreated, data, "Subscribed successfully")
	}
	return respond(c, http.StatusOK, data, "Unsubscribed successfully")
}

func (h *SubscriptionHandler) ChannelSubscribers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	subs, err := h.Subs.ChannelSubscribers(ctx, c.Param("channelId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, subs, "Subscribers fetched successfully")
}

func (h *SubscriptionHandler) SubscribedChannels(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	chans, err := h.Subs.SubscribedChannels(ctx, c.Param("subscriberId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, chans, "Subscribed channels fetched successfully")
}
