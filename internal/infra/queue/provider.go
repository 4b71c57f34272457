package queue

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"coursehub/config"
	"coursehub/internal/domain/service"
)

// localDispatcher sends mail from a detached goroutine so HTTP handlers
// never wait on SMTP. Used when no broker is configured.
type localDispatcher struct {
	mailer service.MailService
	logger *slog.Logger
}

func (d *localDispatcher) Dispatch(_ context.Context, task *service.MailTask) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), consumeTimeout)
		defer cancel()

		if err := d.mailer.Send(ctx, task); err != nil {
			d.logger.Error("Mail send failed",
				slog.String("kind", string(task.Kind)),
				slog.String("to", task.To),
				slog.Any("error", err),
			)
		}
	}()

	return nil
}

// DispatcherParams holds dependencies for the mail pipeline, injected by Fx
type DispatcherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Mailer service.MailService
	Logger *slog.Logger
}

// NewMailDispatcher creates the mail dispatcher and its matching consumer.
// With RabbitMQ configured the pair is publisher/consumer over a durable
// queue; without it the dispatcher sends in-process and the consumer idles.
func NewMailDispatcher(params DispatcherParams) (service.MailDispatcher, MailConsumer, error) {
	cfg := params.Config.RabbitMQ
	logger := params.Logger

	if cfg == nil || cfg.URL == "" {
		logger.Info("RabbitMQ not configured, sending mail in-process")

		return &localDispatcher{mailer: params.Mailer, logger: logger}, noopConsumer{}, nil
	}

	queueName := cfg.Queue
	if queueName == "" {
		queueName = "coursehub.mail"
	}

	dispatcher, err := newRabbitDispatcher(cfg.URL, queueName, logger)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Using RabbitMQ mail dispatcher", slog.String("queue", queueName))

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing mail dispatcher")

			return dispatcher.Close()
		},
	})

	consumer := newRabbitConsumer(cfg.URL, queueName, params.Mailer, logger)

	return dispatcher, consumer, nil
}
