package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/queue"
	"github.com/iliyamo/vidtube-backend/internal/repository"
)

type Subscriptions struct {
	Subs   *repository.SubscriptionRepo
	Users  *repository.UserRepo
	Events EventPublisher
	Log    *zap.Logger
}

func NewSubscriptions(subs *repository.SubscriptionRepo, users *repository.UserRepo, events EventPublisher, log *zap.Logger) *Subscriptions {
	return &Subscriptions{Subs: subs, Users: users, Events: events, Log: log}
}

// Toggle subscribes subscriberID to channelID, or unsubscribes when the
// subscription already exists. Same delete-first scheme as Ledger.Toggle.
func (s *Subscriptions) Toggle(ctx context.Context, channelID, subscriberID string) (bool, error) {
	if subscriberID == "" {
		return false, apperr.Unauthorized("authentication required")
	}
	channelID, err := canonicalID(channelID, "channel")
	if err != nil {
		return false, err
	}
	if subscriberID, err = canonicalID(subscriberID, "subscriber"); err != nil {
		return false, apperr.Unauthorized("authentication required")
	}
	if channelID == subscriberID {
		return false, apperr.SelfReference("cannot subscribe to your own channel")
	}
	if err := s.requireUser(ctx, channelID, "channel not found"); err != nil {
		return false, err
	}

	removed, err := s.Subs.Delete(ctx, subscriberID, channelID)
	if err != nil {
		return false, apperr.Upstream(err, "remove subscription")
	}
	if removed {
		s.publish(ctx, subscriberID, channelID, false)
		return false, nil
	}

	_, err = s.Subs.Insert(ctx, subscriberID, channelID)
	if errors.Is(err, repository.ErrDuplicate) {
		s.Log.Debug("concurrent subscription toggle, row already present",
			zap.String("subscriber_id", subscriberID), zap.String("channel_id", channelID))
		return true, nil
	}
	if err != nil {
		return false, apperr.Upstream(err, "add subscription")
	}
	s.publish(ctx, subscriberID, channelID, true)
	return true, nil
}

// ChannelSubscribers lists who follows channelID, newest first.
func (s *Subscriptions) ChannelSubscribers(ctx context.Context, channelID string) ([]model.ChannelSummary, error) {
	channelID, err := canonicalID(channelID, "channel")
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, channelID, "channel not found"); err != nil {
		return nil, err
	}
	out, err := s.Subs.ListSubscribers(ctx, channelID)
	if err != nil {
		return nil, apperr.Upstream(err, "list subscribers")
	}
	return out, nil
}

// SubscribedChannels lists the channels subscriberID follows, newest first.
func (s *Subscriptions) SubscribedChannels(ctx context.Context, subscriberID string) ([]model.ChannelSummary, error) {
	subscriberID, err := canonicalID(subscriberID, "subscriber")
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, subscriberID, "subscriber not found"); err != nil {
		return nil, err
	}
	out, err := s.Subs.ListSubscribedChannels(ctx, subscriberID)
	if err != nil {
		return nil, apperr.Upstream(err, "list subscribed channels")
	}
	return out, nil
}

func (s *Subscriptions) requireUser(ctx context.Context, id, notFoundMsg string) error {
	_, err := s.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(notFoundMsg)
	}
	if err != nil {
		return apperr.Upstream(err, "load user")
	}
	return nil
}

func (s *Subscriptions) publish(ctx context.Context, subscriberID, channelID string, subscribed bool) {
	notify(ctx, s.Log, queue.SubscriptionToggledQueue, func(ctx context.Context) error {
		return s.Events.PublishSubscriptionToggled(ctx, queue.SubscriptionToggledEvent{
			SubscriberID: subscriberID,
			ChannelID:    channelID,
			Subscribed:   subscribed,
			OccurredAt:   time.Now().UTC().Format(time.RFC3339),
		})
	})
}
