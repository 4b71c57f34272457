// Package worker contains the background deliveries: the mail consumer and
// the periodic cleanup loop.
package worker

import (
	"context"
	"log/slog"

	"coursehub/internal/delivery"
	"coursehub/internal/infra/queue"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type mailWorker struct {
	consumer queue.MailConsumer
	logger   *slog.Logger
}

// MailWorkerParams holds dependencies for the mail worker
type MailWorkerParams struct {
	fx.In

	Consumer queue.MailConsumer
	Logger   *slog.Logger
}

// NewMailWorker wraps the queue consumer as a delivery so it starts and
// stops with the rest of the application.
func NewMailWorker(params MailWorkerParams) delivery.Delivery {
	return &mailWorker{
		consumer: params.Consumer,
		logger:   params.Logger,
	}
}

// Serve runs the mail consumer until the context is cancelled.
func (w *mailWorker) Serve(ctx context.Context) error {
	w.logger.Info("Starting mail worker")

	if err := w.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "mail consumer stopped")
	}

	return nil
}
