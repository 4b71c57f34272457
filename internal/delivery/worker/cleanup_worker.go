package worker

import (
	"context"
	"log/slog"
	"time"

	"coursehub/config"
	"coursehub/internal/delivery"
	"coursehub/internal/domain/repository"

	"go.uber.org/fx"
)

// Fallbacks when the cleanup section is absent from configuration.
const (
	defaultCleanupInterval   = time.Hour
	defaultPendingPaymentTTL = 72 * time.Hour
	defaultSessionTTL        = 24 * time.Hour
)

// cleanupWorker periodically removes rows that only exist to serve a
// window that has since closed: dead sessions, stale pending payments and
// expired verification tokens.
type cleanupWorker struct {
	sessionRepo repository.SessionRepository
	paymentRepo repository.PaymentRepository
	userRepo    repository.UserRepository
	interval    time.Duration
	paymentTTL  time.Duration
	sessionTTL  time.Duration
	logger      *slog.Logger
}

// CleanupWorkerParams holds dependencies for the cleanup worker
type CleanupWorkerParams struct {
	fx.In

	Config      *config.Config
	SessionRepo repository.SessionRepository
	PaymentRepo repository.PaymentRepository
	UserRepo    repository.UserRepository
	Logger      *slog.Logger
}

// NewCleanupWorker is the constructor for the cleanup delivery.
func NewCleanupWorker(params CleanupWorkerParams) delivery.Delivery {
	interval := defaultCleanupInterval
	paymentTTL := defaultPendingPaymentTTL
	sessionTTL := defaultSessionTTL
	if cleanup := params.Config.Cleanup; cleanup != nil {
		if cleanup.Interval > 0 {
			interval = cleanup.Interval
		}
		if cleanup.PendingPaymentTTL > 0 {
			paymentTTL = cleanup.PendingPaymentTTL
		}
		if cleanup.RevokedSessionTTL > 0 {
			sessionTTL = cleanup.RevokedSessionTTL
		}
	}

	return &cleanupWorker{
		sessionRepo: params.SessionRepo,
		paymentRepo: params.PaymentRepo,
		userRepo:    params.UserRepo,
		interval:    interval,
		paymentTTL:  paymentTTL,
		sessionTTL:  sessionTTL,
		logger:      params.Logger,
	}
}

// Serve runs the cleanup loop until the context is cancelled. One pass runs
// immediately at startup so a crash-looping deployment still makes progress.
func (w *cleanupWorker) Serve(ctx context.Context) error {
	w.logger.Info("Starting cleanup worker", slog.Duration("interval", w.interval))

	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping cleanup worker")

			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep performs one cleanup pass. Each step is independent; a failure is
// logged and the remaining steps still run.
func (w *cleanupWorker) sweep(ctx context.Context) {
	now := time.Now()

	if removed, err := w.sessionRepo.DeleteExpired(ctx, now.Add(-w.sessionTTL)); err != nil {
		w.logger.Warn("Session cleanup failed", slog.Any("error", err))
	} else if removed > 0 {
		w.logger.Info("Removed dead sessions", slog.Int64("count", removed))
	}

	if removed, err := w.paymentRepo.DeleteStalePending(ctx, now.Add(-w.paymentTTL)); err != nil {
		w.logger.Warn("Stale payment cleanup failed", slog.Any("error", err))
	} else if removed > 0 {
		w.logger.Info("Removed stale pending payments", slog.Int64("count", removed))
	}

	if cleared, err := w.userRepo.ClearExpiredVerifications(ctx, now); err != nil {
		w.logger.Warn("Verification token cleanup failed", slog.Any("error", err))
	} else if cleared > 0 {
		w.logger.Info("Cleared expired verification tokens", slog.Int64("count", cleared))
	}
}
