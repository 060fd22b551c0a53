// Package queue defines the engagement events exchanged over RabbitMQ and
// the consumer that reacts to content deletions.
package queue

// Queue names. Each event type has its own durable queue on the default
// exchange.
const (
	ReactionToggledQueue     = "engagement.reaction_toggled"
	SubscriptionToggledQueue = "engagement.subscription_toggled"
	TargetDeletedQueue       = "engagement.target_deleted"
)

// ReactionToggledEvent is published after a like is created or removed.
type ReactionToggledEvent struct {
	ReactorID  string `json:"reactor_id"`
	TargetKind string `json:"target_kind"`
	TargetID   string `json:"target_id"`
	Reacted    bool   `json:"reacted"`
	OccurredAt string `json:"occurred_at"`
}

// SubscriptionToggledEvent is published after a follow is created or removed.
type SubscriptionToggledEvent struct {
	SubscriberID string `json:"subscriber_id"`
	ChannelID    string `json:"channel_id"`
	Subscribed   bool   `json:"subscribed"`
	OccurredAt   string `json:"occurred_at"`
}

// TargetDeletedEvent is produced by the content services when a video,
// comment or tweet is removed. Its reactions are purged on receipt.
type TargetDeletedEvent struct {
	TargetKind string `json:"target_kind"`
	TargetID   string `json:"target_id"`
	DeletedAt  string `json:"deleted_at,omitempty"`
}
