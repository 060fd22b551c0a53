package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/vidtube-backend/internal/model"
)

// SubscriptionRepo persists channel follows. The table rejects duplicate
// pairs and self-subscriptions.
type SubscriptionRepo struct{ DB *sql.DB }

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{DB: db} }

// Delete removes the follow and reports whether it existed.
func (r *SubscriptionRepo) Delete(ctx context.Context, subscriberID, channelID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE subscriber_id=? AND channel_id=?",
		subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete subscription rows: %w", err)
	}
	return n > 0, nil
}

// Insert creates the follow. ErrDuplicate means it already exists.
func (r *SubscriptionRepo) Insert(ctx context.Context, subscriberID, channelID string) (model.Subscription, error) {
	s := model.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at) VALUES (?,?,?,?)",
		s.ID, s.SubscriberID, s.ChannelID, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Subscription{}, ErrDuplicate
		}
		return model.Subscription{}, fmt.Errorf("insert subscription: %w", err)
	}
	return s, nil
}

// CountSubscribers counts the followers of channelID.
func (r *SubscriptionRepo) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM subscriptions WHERE channel_id=?", channelID)
}

// CountSubscribedTo counts the channels subscriberID follows.
func (r *SubscriptionRepo) CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM subscriptions WHERE subscriber_id=?", subscriberID)
}

func (r *SubscriptionRepo) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	n, err := r.count(ctx,
		"SELECT COUNT(*) FROM subscriptions WHERE subscriber_id=? AND channel_id=?",
		subscriberID, channelID)
	return n > 0, err
}

// ListSubscribers returns the users following channelID, newest first.
func (r *SubscriptionRepo) ListSubscribers(ctx context.Context, channelID string) ([]model.ChannelSummary, error) {
	return r.list(ctx,
		`SELECT u.id, u.username, u.full_name, u.avatar, s.created_at
		   FROM subscriptions s JOIN users u ON u.id = s.subscriber_id
		  WHERE s.channel_id = ?
		  ORDER BY s.created_at DESC`, channelID)
}

// ListSubscribedChannels returns the channels subscriberID follows, newest first.
func (r *SubscriptionRepo) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]model.ChannelSummary, error) {
	return r.list(ctx,
		`SELECT u.id, u.username, u.full_name, u.avatar, s.created_at
		   FROM subscriptions s JOIN users u ON u.id = s.channel_id
		  WHERE s.subscriber_id = ?
		  ORDER BY s.created_at DESC`, subscriberID)
}

func (r *SubscriptionRepo) count(ctx context.Context, q string, args ...any) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return n, nil
}

func (r *SubscriptionRepo) list(ctx context.Context, q string, id string) ([]model.ChannelSummary, error) {
	rows, err := r.DB.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	out := []model.ChannelSummary{}
	for rows.Next() {
		var c model.ChannelSummary
		if err := rows.Scan(&c.ID, &c.Username, &c.FullName, &c.Avatar, &c.SubscribedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return out, nil
}
