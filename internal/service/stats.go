package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/repository"
)

// Stats derives read-only channel figures. Nothing here is transactional;
// the numbers of one call may disagree slightly under concurrent writes.
type Stats struct {
	Videos    *repository.VideoRepo
	Reactions *repository.ReactionRepo
	Subs      *repository.SubscriptionRepo
	Users     *repository.UserRepo
}

func NewStats(videos *repository.VideoRepo, reactions *repository.ReactionRepo, subs *repository.SubscriptionRepo, users *repository.UserRepo) *Stats {
	return &Stats{Videos: videos, Reactions: reactions, Subs: subs, Users: users}
}

// ChannelStats returns the dashboard totals for channelID. The four
// queries run in parallel.
func (s *Stats) ChannelStats(ctx context.Context, channelID string) (model.ChannelStats, error) {
	channelID, err := canonicalID(channelID, "channel")
	if err != nil {
		return model.ChannelStats{}, err
	}

	var out model.ChannelStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalVideos, err = s.Videos.CountByOwner(gctx, channelID)
		return err
	})
	g.Go(func() (err error) {
		out.TotalViews, err = s.Videos.SumViewsByOwner(gctx, channelID)
		return err
	})
	g.Go(func() (err error) {
		out.TotalSubscribers, err = s.Subs.CountSubscribers(gctx, channelID)
		return err
	})
	g.Go(func() (err error) {
		out.TotalLikes, err = s.Reactions.CountVideoLikesForOwner(gctx, channelID)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ChannelStats{}, apperr.Upstream(err, "compute channel stats")
	}
	return out, nil
}

// ChannelProfile loads the public channel page for handle. viewerID is the
// authenticated caller or empty; IsSubscribedByViewer is false without one.
func (s *Stats) ChannelProfile(ctx context.Context, handle, viewerID string) (model.ChannelProfile, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if handle == "" {
		return model.ChannelProfile{}, apperr.InvalidArgument("username is missing")
	}

	u, err := s.Users.GetByUsername(ctx, handle)
	if errors.Is(err, repository.ErrNotFound) {
		return model.ChannelProfile{}, apperr.NotFound("channel does not exist")
	}
	if err != nil {
		return model.ChannelProfile{}, apperr.Upstream(err, "load channel")
	}

	p := model.ChannelProfile{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Email:      u.Email,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		p.SubscribersCount, err = s.Subs.CountSubscribers(gctx, u.ID)
		return err
	})
	g.Go(func() (err error) {
		p.SubscribedToCount, err = s.Subs.CountSubscribedTo(gctx, u.ID)
		return err
	})
	// a viewer id that does not parse is treated as anonymous
	if viewer, err := canonicalID(viewerID, "viewer"); err == nil {
		g.Go(func() (err error) {
			p.IsSubscribedByViewer, err = s.Subs.Exists(gctx, viewer, u.ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return model.ChannelProfile{}, apperr.Upstream(err, "load channel counts")
	}
	return p, nil
}
