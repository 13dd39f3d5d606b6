// Package queue carries the daily top-spender event between the catalog and
// mailer services over RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/shophub/pkg/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// MostSpentUser names yesterday's top spender and what they spent.
type MostSpentUser struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

// Queue is a thin wrapper over one AMQP channel and one durable queue.
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	name    string
	logger  *zap.Logger
}

func New(cfg *config.AMQPConfig, logger *zap.Logger) (*Queue, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &Queue{
		conn:    conn,
		channel: channel,
		name:    cfg.Queue,
		logger:  logger,
	}, nil
}

// PublishMostSpentUser enqueues the event as persistent JSON.
func (q *Queue) PublishMostSpentUser(ctx context.Context, event MostSpentUser) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = q.channel.PublishWithContext(ctx, "", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	q.logger.Info("Published top spender event",
		zap.String("user_id", event.UserID),
		zap.Float64("amount", event.Amount))
	return nil
}

// ConsumeMostSpentUser delivers each event to handle until ctx is canceled.
// A handler error leaves the message unacked so the broker redelivers it.
func (q *Queue) ConsumeMostSpentUser(ctx context.Context, handle func(ctx context.Context, event MostSpentUser) error) error {
	deliveries, err := q.channel.Consume(q.name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("queue channel closed")
			}

			var event MostSpentUser
			if err := json.Unmarshal(delivery.Body, &event); err != nil {
				q.logger.Warn("Dropping malformed event", zap.Error(err))
				delivery.Nack(false, false)
				continue
			}

			if err := handle(ctx, event); err != nil {
				q.logger.Warn("Event handling failed, requeueing",
					zap.String("user_id", event.UserID), zap.Error(err))
				delivery.Nack(false, true)
				continue
			}
			delivery.Ack(false)
		}
	}
}

func (q *Queue) Close() error {
	if err := q.channel.Close(); err != nil {
		return err
	}
	return q.conn.Close()
}
