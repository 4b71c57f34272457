package impl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"coursehub/config"
	deliverycontext "coursehub/internal/delivery/context"
	domainerrors "coursehub/internal/domain/errors"
	"coursehub/internal/domain/repository"
	"coursehub/internal/domain/service"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const verificationTokenBytes = 32

// verificationService implements the VerificationUsecase interface.
type verificationService struct {
	txManager    repository.TransactionManager
	tokenService service.TokenService
	dispatcher   service.MailDispatcher
	tokenTTL     time.Duration
	resendAfter  time.Duration
	logger       *slog.Logger
}

// VerificationServiceParams holds dependencies for VerificationService, injected by Fx.
type VerificationServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	TokenService service.TokenService
	Dispatcher   service.MailDispatcher
	Config       *config.Config
	Logger       *slog.Logger
}

// NewVerificationService is the constructor for verificationService.
func NewVerificationService(params VerificationServiceParams) usecase.VerificationUsecase {
	return &verificationService{
		txManager:    params.TxManager,
		tokenService: params.TokenService,
		dispatcher:   params.Dispatcher,
		tokenTTL:     params.Config.Auth.VerificationTTL,
		resendAfter:  params.Config.Auth.VerificationResend,
		logger:       params.Logger,
	}
}

func (srv *verificationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RequestVerification issues a fresh token and queues the verification
// mail. The plaintext token exists only in the mail; the row keeps its hash.
func (srv *verificationService) RequestVerification(ctx context.Context, userID uuid.UUID) error {
	srv.log(ctx).Debug("Requesting email verification", slog.Any("userID", userID))

	token, err := generateVerificationToken()
	if err != nil {
		return errors.Wrap(err, "failed to generate verification token")
	}

	var task *service.MailTask
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound
			}

			return errors.Wrap(err, "failed to find user")
		}

		if user.IsEmailVerified {
			return domainerrors.ErrAlreadyVerified
		}
		if user.VerificationSentAt != nil && time.Since(*user.VerificationSentAt) < srv.resendAfter {
			return domainerrors.ErrVerificationThrottled
		}

		now := time.Now()
		expiresAt := now.Add(srv.tokenTTL)
		user.VerificationTokenHash = srv.tokenService.HashToken(token)
		user.VerificationExpiresAt = &expiresAt
		user.VerificationSentAt = &now

		if err := userRepo.Update(ctx, user); err != nil {
			return errors.Wrap(err, "failed to store verification token")
		}

		task = &service.MailTask{
			Kind:  service.MailVerification,
			To:    user.Email,
			Name:  user.Name,
			Token: token,
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to execute verification request transaction")
	}

	// Dispatch after commit so the stored hash always matches the mailed token.
	if err := srv.dispatcher.Dispatch(ctx, task); err != nil {
		srv.log(ctx).Error("Failed to dispatch verification mail",
			slog.Any("userID", userID), slog.Any("error", err))
	}

	return nil
}

// VerifyEmail consumes a plaintext token from the confirmation link.
func (srv *verificationService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return domainerrors.ErrVerificationInvalid
	}

	tokenHash := srv.tokenService.HashToken(token)

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByVerificationHash(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrVerificationInvalid
			}

			return errors.Wrap(err, "failed to find user by verification hash")
		}

		if user.VerificationExpiresAt == nil || time.Now().After(*user.VerificationExpiresAt) {
			return domainerrors.ErrVerificationInvalid
		}

		user.IsEmailVerified = true
		user.VerificationTokenHash = ""
		user.VerificationExpiresAt = nil

		return errors.Wrap(userRepo.Update(ctx, user), "failed to mark email verified")
	})
	if err != nil {
		srv.log(ctx).Warn("Email verification failed", slog.Any("error", err))

		return errors.Wrap(err, "failed to execute email verification transaction")
	}

	srv.log(ctx).Info("Email verified")

	return nil
}

func generateVerificationToken() (string, error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return hex.EncodeToString(buf), nil
}
