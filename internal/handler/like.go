package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/service"
)

type LikeHandler struct {
	Ledger *service.Ledger
}

func NewLikeHandler(ledger *service.Ledger) *LikeHandler { return &LikeHandler{Ledger: ledger} }

func (h *LikeHandler) ToggleVideo(c echo.Context) error {
	return h.toggle(c, model.TargetVideo, c.Param("videoId"))
}

func (h *LikeHandler) ToggleComment(c echo.Context) error {
	return h.toggle(c, model.TargetComment, c.Param("commentId"))
}

func (h *LikeHandler) ToggleTweet(c echo.Context) error {
	return h.toggle(c, model.TargetTweet, c.Param("tweetId"))
}

// toggle answers 201 when the like was created and 200 when it was removed.
func (h *LikeHandler) toggle(c echo.Context, kind model.TargetKind, targetID string) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	reacted, err := h.Ledger.Toggle(ctx, kind, targetID, uid)
	if err != nil {
		return err
	}
	data := echo.Map{"reacted": reacted}
	if reacted {
		return respond(c, http.StatusCreated, data, "Liked "+string(kind))
	}
	return respond(c, http.StatusOK, data, "Unliked "+string(kind))
}

// LikedVideos lists the caller's liked videos.
func (h *LikeHandler) LikedVideos(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	videos, err := h.Ledger.LikedVideos(ctx, uid)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, videos, "Liked videos fetched successfully")
}
