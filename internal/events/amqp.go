package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// AMQPPublisher writes events as JSON to a durable queue on the default exchange.
type AMQPPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
}

var _ Publisher = (*AMQPPublisher)(nil)

func NewAMQPPublisher(url string, queue string, logger *slog.Logger) (*AMQPPublisher, error) {
	if url == "" {
		return nil, errors.New("amqp url is required")
	}
	if queue == "" {
		return nil, errors.New("amqp queue is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to amqp broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	declared, err := channel.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	logger.Info("event queue ready", "queue", declared.Name)

	return &AMQPPublisher{
		conn:    conn,
		channel: channel,
		queue:   declared.Name,
		logger:  logger,
	}, nil
}

func (publisher *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	err = publisher.channel.PublishWithContext(publishCtx, "", publisher.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (publisher *AMQPPublisher) Close() error {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	var errs []error
	if publisher.channel != nil {
		errs = append(errs, publisher.channel.Close())
	}
	if publisher.conn != nil {
		errs = append(errs, publisher.conn.Close())
	}
	return errors.Join(errs...)
}
