package model

import "time"

// Subscription mirrors the `subscriptions` table: SubscriberID follows
// ChannelID. The pair is unique and the two ids never match.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}
