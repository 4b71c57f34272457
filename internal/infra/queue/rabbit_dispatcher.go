// Package queue implements asynchronous mail dispatch over RabbitMQ,
// with an in-process fallback when no broker is configured.
package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/pkg/errors"

	"coursehub/internal/domain/service"
)

const (
	publishTimeout = 5 * time.Second
	reconnectDelay = 5 * time.Second
)

// rabbitDispatcher publishes mail tasks as persistent JSON messages onto a
// durable queue. A single channel is shared and guarded by a mutex since
// amqp channels are not safe for concurrent publishing.
type rabbitDispatcher struct {
	url    string
	queue  string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func newRabbitDispatcher(url, queue string, logger *slog.Logger) (*rabbitDispatcher, error) {
	d := &rabbitDispatcher{
		url:    url,
		queue:  queue,
		logger: logger,
	}
	if err := d.connect(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *rabbitDispatcher) connect() error {
	conn, err := amqp.Dial(d.url)
	if err != nil {
		return errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()

		return errors.Wrap(err, "failed to open RabbitMQ channel")
	}

	if _, err := ch.QueueDeclare(
		d.queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()

		return errors.Wrapf(err, "failed to declare queue %s", d.queue)
	}

	d.conn = conn
	d.ch = ch

	return nil
}

// Dispatch publishes the task. On a closed connection it reconnects once
// before giving up; the caller treats dispatch errors as non-fatal.
func (d *rabbitDispatcher) Dispatch(ctx context.Context, task *service.MailTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, "failed to marshal mail task")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.publish(ctx, body); err == nil {
		return nil
	}

	d.logger.Warn("Mail publish failed, reconnecting to RabbitMQ")
	if err := d.connect(); err != nil {
		return err
	}

	return d.publish(ctx, body)
}

func (d *rabbitDispatcher) publish(ctx context.Context, body []byte) error {
	if d.ch == nil || d.ch.IsClosed() {
		return errors.New("rabbitmq channel is closed")
	}

	err := d.ch.PublishWithContext(ctx,
		"",      // default exchange
		d.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)

	return errors.Wrap(err, "failed to publish mail task")
}

func (d *rabbitDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ch != nil {
		d.ch.Close()
	}
	if d.conn != nil {
		return d.conn.Close()
	}

	return nil
}
