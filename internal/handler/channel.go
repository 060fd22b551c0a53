package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-backend/internal/service"
)

// ChannelHandler serves the read-side channel pages.
type ChannelHandler struct {
	Stats *service.Stats
}

func NewChannelHandler(stats *service.Stats) *ChannelHandler { return &ChannelHandler{Stats: stats} }

// DashboardStats returns the totals of the caller's own channel.
func (h *ChannelHandler) DashboardStats(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := h.Stats.ChannelStats(ctx, uid)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats, "Channel stats fetched successfully")
}

// Profile returns the public page of :username. Authentication is
// optional; it only affects isSubscribed.
func (h *ChannelHandler) Profile(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Stats.ChannelProfile(ctx, c.Param("username"), viewerID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, p, "User channel fetched successfully")
}
