package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/pkg/errors"

	"coursehub/internal/domain/service"
)

const consumeTimeout = 30 * time.Second

// MailConsumer drains queued mail tasks and sends them. Run blocks until
// the context is cancelled.
type MailConsumer interface {
	Run(ctx context.Context) error
}

// rabbitConsumer opens its own connection so that consuming never contends
// with the publisher channel. It reconnects with a fixed delay after broker
// failures.
type rabbitConsumer struct {
	url    string
	queue  string
	mailer service.MailService
	logger *slog.Logger
}

func newRabbitConsumer(url, queue string, mailer service.MailService, logger *slog.Logger) *rabbitConsumer {
	return &rabbitConsumer{
		url:    url,
		queue:  queue,
		mailer: mailer,
		logger: logger,
	}
}

func (c *rabbitConsumer) Run(ctx context.Context) error {
	for {
		if err := c.consume(ctx); err != nil {
			c.logger.Error("Mail consumer disconnected", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *rabbitConsumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return errors.Wrap(err, "failed to connect to RabbitMQ")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open RabbitMQ channel")
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "failed to declare queue %s", c.queue)
	}

	// One unacked message at a time keeps SMTP pressure bounded.
	if err := ch.Qos(1, 0, false); err != nil {
		return errors.Wrap(err, "failed to set QoS")
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to consume queue %s", c.queue)
	}

	c.logger.Info("Mail consumer started", slog.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, delivery)
		}
	}
}

func (c *rabbitConsumer) handle(ctx context.Context, delivery amqp.Delivery) {
	var task service.MailTask
	if err := json.Unmarshal(delivery.Body, &task); err != nil {
		c.logger.Error("Discarding malformed mail task", slog.Any("error", err))
		_ = delivery.Nack(false, false)

		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, consumeTimeout)
	defer cancel()

	if err := c.mailer.Send(sendCtx, &task); err != nil {
		c.logger.Error("Mail send failed",
			slog.String("kind", string(task.Kind)),
			slog.String("to", task.To),
			slog.Any("error", err),
		)
		// Requeue once through the broker; a poisoned task would otherwise
		// loop forever, so redelivered tasks are dropped.
		_ = delivery.Nack(false, !delivery.Redelivered)

		return
	}

	_ = delivery.Ack(false)
}

// noopConsumer backs the in-process dispatcher, which sends mail itself.
type noopConsumer struct{}

func (noopConsumer) Run(ctx context.Context) error {
	<-ctx.Done()

	return ctx.Err()
}
