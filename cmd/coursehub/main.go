package main

import (
	"context"
	"log/slog"
	"os"

	"coursehub/config"
	"coursehub/internal/delivery"
	"coursehub/internal/delivery/http"
	"coursehub/internal/delivery/http/middleware"
	"coursehub/internal/delivery/http/router/handler"
	"coursehub/internal/delivery/worker"
	"coursehub/internal/domain/service"
	"coursehub/internal/infra/auth"
	"coursehub/internal/infra/authz"
	"coursehub/internal/infra/cache"
	"coursehub/internal/infra/geoip"
	logs "coursehub/internal/infra/log"
	"coursehub/internal/infra/mail"
	"coursehub/internal/infra/payment"
	"coursehub/internal/infra/persistence/postgres"
	"coursehub/internal/infra/qrcode"
	"coursehub/internal/infra/queue"
	"coursehub/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		cache.NewCatalogCache,
		queue.NewMailDispatcher,
		payment.NewRegistry,
		geoip.NewRegionResolver,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewSessionRepository,
			postgres.NewCourseRepository,
			postgres.NewCategoryRepository,
			postgres.NewEnrollmentRepository,
			postgres.NewPaymentRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			authz.NewPolicy,
			mail.NewSMTPService,
			newQRCodeService,
		),
	)
}

// newQRCodeService creates a QR code service with dependency injection
func newQRCodeService(cfg *config.Config) service.QRCodeService {
	if cfg.QRCode == nil {
		// Use default values if not configured
		return qrcode.NewQRCodeService(256, "M")
	}

	return qrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewUserService,
			impl.NewVerificationService,
			impl.NewCourseService,
			impl.NewEnrollmentService,
			impl.NewPaymentService,
			impl.NewManagementService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewVerificationHandler,
			handler.NewCourseHandler,
			handler.NewCategoryHandler,
			handler.NewEnrollmentHandler,
			handler.NewManagementHandler,
			handler.NewPaymentHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewMailWorker,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewCleanupWorker,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
