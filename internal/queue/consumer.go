package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// TargetPurger removes every reaction attached to a deleted target.
type TargetPurger interface {
	PurgeTarget(ctx context.Context, kind, targetID string) (int64, error)
}

// TargetDeletedConsumer drains engagement.target_deleted and purges the
// reactions of each deleted target.
type TargetDeletedConsumer struct {
	URL    string
	Purger TargetPurger
	Log    *zap.Logger
}

// Run connects to the broker and consumes until ctx is cancelled. Broken
// connections are retried with exponential backoff capped at 30s.
func (c *TargetDeletedConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("target-deleted consumer: dial failed",
				zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("target-deleted consumer: loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *TargetDeletedConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("target-deleted consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(TargetDeletedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(TargetDeletedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(ctx, d.Body); err != nil {
				c.Log.Error("target-deleted consumer: handle message failed", zap.Error(err))
				// reject without requeue so a poison message cannot spin
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *TargetDeletedConsumer) handleMessage(ctx context.Context, body []byte) error {
	var ev TargetDeletedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.TargetKind == "" || ev.TargetID == "" {
		return errors.New("event missing target_kind or target_id")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	n, err := c.Purger.PurgeTarget(ctx, ev.TargetKind, ev.TargetID)
	if err != nil {
		return fmt.Errorf("purge %s:%s: %w", ev.TargetKind, ev.TargetID, err)
	}
	c.Log.Info("purged reactions of deleted target",
		zap.String("kind", ev.TargetKind), zap.String("target_id", ev.TargetID), zap.Int64("removed", n))
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
