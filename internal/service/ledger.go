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

// Ledger records likes on videos, comments and tweets.
type Ledger struct {
	Reactions *repository.ReactionRepo
	Events    EventPublisher
	Log       *zap.Logger

	// beforeInsert runs between the delete and the insert of a toggle.
	// Tests use it to line up concurrent toggles.
	beforeInsert func()
}

func NewLedger(reactions *repository.ReactionRepo, events EventPublisher, log *zap.Logger) *Ledger {
	return &Ledger{Reactions: reactions, Events: events, Log: log}
}

// Toggle flips reactorID's like on the target and reports whether it is
// now present. The target is not required to exist.
//
// Delete runs first so an existing like is removed without a read. When
// the insert that follows hits the unique key, a concurrent toggle created
// the row in between; the like is present and the call reports so.
func (l *Ledger) Toggle(ctx context.Context, kind model.TargetKind, targetID, reactorID string) (bool, error) {
	if reactorID == "" {
		return false, apperr.Unauthorized("authentication required")
	}
	if !kind.Valid() {
		return false, apperr.InvalidArgument("unknown target kind")
	}
	targetID, err := canonicalID(targetID, string(kind))
	if err != nil {
		return false, err
	}
	if reactorID, err = canonicalID(reactorID, "reactor"); err != nil {
		return false, apperr.Unauthorized("authentication required")
	}
	target, err := model.NewTarget(kind, targetID)
	if err != nil {
		return false, apperr.InvalidArgument(err.Error())
	}

	removed, err := l.Reactions.Delete(ctx, reactorID, target)
	if err != nil {
		return false, apperr.Upstream(err, "remove like")
	}
	if removed {
		l.publish(ctx, reactorID, target, false)
		return false, nil
	}

	if l.beforeInsert != nil {
		l.beforeInsert()
	}
	_, err = l.Reactions.Insert(ctx, reactorID, target)
	if errors.Is(err, repository.ErrDuplicate) {
		l.Log.Debug("concurrent like toggle, row already present",
			zap.String("reactor_id", reactorID), zap.Stringer("target", target))
		return true, nil
	}
	if err != nil {
		return false, apperr.Upstream(err, "add like")
	}
	l.publish(ctx, reactorID, target, true)
	return true, nil
}

// LikedVideos lists the videos reactorID likes, newest like first. Likes
// on videos that no longer exist are skipped.
func (l *Ledger) LikedVideos(ctx context.Context, reactorID string) ([]model.Video, error) {
	reactorID, err := canonicalID(reactorID, "reactor")
	if err != nil {
		return nil, apperr.Unauthorized("authentication required")
	}
	videos, err := l.Reactions.LikedVideos(ctx, reactorID)
	if err != nil {
		return nil, apperr.Upstream(err, "list liked videos")
	}
	return videos, nil
}

// PurgeTarget deletes every like on a removed target and returns the count.
// A malformed kind or id is InvalidArgument.
func (l *Ledger) PurgeTarget(ctx context.Context, kind, targetID string) (int64, error) {
	k, err := model.ParseTargetKind(kind)
	if err != nil {
		return 0, apperr.InvalidArgument(err.Error())
	}
	if targetID, err = canonicalID(targetID, kind); err != nil {
		return 0, err
	}
	target, err := model.NewTarget(k, targetID)
	if err != nil {
		return 0, apperr.InvalidArgument(err.Error())
	}
	n, err := l.Reactions.PurgeTarget(ctx, target)
	if err != nil {
		return 0, apperr.Upstream(err, "purge likes")
	}
	return n, nil
}

func (l *Ledger) publish(ctx context.Context, reactorID string, target model.Target, reacted bool) {
	notify(ctx, l.Log, queue.ReactionToggledQueue, func(ctx context.Context) error {
		return l.Events.PublishReactionToggled(ctx, queue.ReactionToggledEvent{
			ReactorID:  reactorID,
			TargetKind: string(target.Kind),
			TargetID:   target.ID,
			Reacted:    reacted,
			OccurredAt: time.Now().UTC().Format(time.RFC3339),
		})
	})
}
