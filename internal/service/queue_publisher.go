package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/vidtube-backend/internal/queue"
)

// EventPublisher announces engagement changes to other services. Publishing
// is best effort: callers log failures and keep the committed write.
type EventPublisher interface {
	PublishReactionToggled(ctx context.Context, ev queue.ReactionToggledEvent) error
	PublishSubscriptionToggled(ctx context.Context, ev queue.SubscriptionToggledEvent) error
}

// NopPublisher drops every event. Used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishReactionToggled(context.Context, queue.ReactionToggledEvent) error {
	return nil
}

func (NopPublisher) PublishSubscriptionToggled(context.Context, queue.SubscriptionToggledEvent) error {
	return nil
}

// AMQPPublisher publishes JSON events to durable queues on the default
// exchange. The connection is opened lazily and reopened after it drops;
// each publish uses its own channel.
type AMQPPublisher struct {
	URL string
	Log *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Log: log}
}

func (p *AMQPPublisher) PublishReactionToggled(ctx context.Context, ev queue.ReactionToggledEvent) error {
	return p.publish(ctx, queue.ReactionToggledQueue, ev)
}

func (p *AMQPPublisher) PublishSubscriptionToggled(ctx context.Context, ev queue.SubscriptionToggledEvent) error {
	return p.publish(ctx, queue.SubscriptionToggledQueue, ev)
}

// Close releases the broker connection, if any.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

// connection returns the shared connection, dialing a new one when there
// is none. The dial runs outside the lock and is bounded by ctx, so a
// stalled broker holds up each caller for at most its own deadline.
func (p *AMQPPublisher) connection(ctx context.Context) (*amqp.Connection, error) {
	p.mu.Lock()
	if p.conn != nil && !p.conn.IsClosed() {
		conn := p.conn
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	timeout := publishTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("dial broker: %w", context.DeadlineExceeded)
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		// another caller connected first
		_ = conn.Close()
		return p.conn, nil
	}
	p.conn = conn
	return conn, nil
}

func (p *AMQPPublisher) publish(ctx context.Context, queueName string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := p.connection(ctx)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s: %w", queueName, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		return fmt.Errorf("publish %s: %w", queueName, err)
	}
	return nil
}

// publishTimeout bounds how long a request waits on the broker.
const publishTimeout = 2 * time.Second

// notify runs fn with a bounded context detached from request cancellation
// and logs the failure, if any.
func notify(ctx context.Context, log *zap.Logger, what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn("event publish failed", zap.String("event", what), zap.Error(err))
	}
}
