// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	"coursehub/config"
	deliverycontext "coursehub/internal/delivery/context"
	"coursehub/internal/domain/entity"
	domainerrors "coursehub/internal/domain/errors"
	"coursehub/internal/domain/repository"
	"coursehub/internal/domain/service"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	verification usecase.VerificationUsecase
	logger       *slog.Logger

	// maxSessions caps the number of usable sessions per user.
	// Zero disables the limit.
	maxSessions int
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	Config       *config.Config
	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	SessionRepo  repository.SessionRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Verification usecase.VerificationUsecase
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		sessionRepo:  params.SessionRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		verification: params.Verification,
		logger:       params.Logger,
		maxSessions:  params.Config.Auth.MaxSessions,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Signup registers a new local account with the default trainee role.
func (srv *userService) Signup(ctx context.Context, input *usecase.SignupInput) (*usecase.SignupOutput, error) {
	srv.log(ctx).Info("Starting signup", slog.String("email", input.Email))

	// Hash outside the transaction; bcrypt is CPU-bound.
	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during signup", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to hash password during signup")
	}

	var registeredUser *entity.User
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		_, err := userRepo.FindByEmail(ctx, input.Email)
		if err == nil {
			return domainerrors.ErrEmailTaken
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check email availability")
		}

		newUser := &entity.User{
			Name:         input.Name,
			Email:        input.Email,
			PasswordHash: hashedPassword,
			Role:         entity.RoleTrainee,
			Provider:     entity.ProviderLocal,
			IsActive:     true,
		}
		if err := userRepo.Create(ctx, newUser); err != nil {
			return errors.WithStack(err)
		}
		registeredUser = newUser

		return nil
	})

	if err != nil {
		srv.log(ctx).Warn("Signup failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute signup transaction")
	}

	// The verification mail is best-effort; the account exists either way
	// and the user can ask for a resend.
	if err := srv.verification.RequestVerification(ctx, registeredUser.ID); err != nil {
		srv.log(ctx).Warn("Failed to queue verification mail after signup",
			slog.Any("userID", registeredUser.ID), slog.Any("error", err))
	}

	srv.log(ctx).Debug("Signup completed", slog.Any("userID", registeredUser.ID))

	return &usecase.SignupOutput{User: registeredUser}, nil
}

// Login verifies credentials and opens a new session. The session row is
// created first so its id can ride inside the tokens, then updated with the
// hash of the signed refresh token.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Starting login", slog.String("email", input.Email))

	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	// Check password outside the transaction (bcrypt is CPU-bound).
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("email", input.Email))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	if !user.IsActive {
		return nil, errors.Wrap(domainerrors.ErrUserInactive, "login failed")
	}

	var accessToken, refreshToken string
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		accessToken, refreshToken, err = srv.openSession(ctx, repoFactory, user, input)
		if err != nil {
			return err
		}

		now := time.Now()
		user.LoginCount++
		user.LastLoginAt = &now

		return errors.Wrap(userRepo.Update(ctx, user), "failed to record login")
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute login transaction", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute login transaction")
	}

	srv.log(ctx).Debug("User logged in successfully", slog.Any("userID", user.ID))

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// openSession performs the two-phase session insert: create the row to
// obtain the session id, sign both tokens with that id embedded, then store
// the refresh token hash on the row. When a session limit is configured the
// user row is locked first so lock, count and insert happen in one
// transaction.
func (srv *userService) openSession(ctx context.Context, repoFactory repository.RepositoryFactory, user *entity.User, input *usecase.LoginInput) (string, string, error) {
	sessionRepo := repoFactory.SessionRepo()

	if srv.maxSessions > 0 {
		if err := repoFactory.UserRepo().AcquireSessionMutex(ctx, user.ID); err != nil {
			return "", "", errors.Wrap(err, "failed to lock user row for session limit check")
		}

		activeSessions, err := sessionRepo.CountActiveByUserID(ctx, user.ID)
		if err != nil {
			return "", "", errors.Wrap(err, "failed to count active sessions")
		}
		if activeSessions >= srv.maxSessions {
			return "", "", errors.Wrap(domainerrors.ErrSessionLimitExceeded, "active session limit exceeded")
		}
	}

	session := &entity.Session{
		UserID:           user.ID,
		JTI:              uuid.New().String(),
		RefreshExpiresAt: time.Now().Add(srv.tokenService.RefreshTokenDuration()),
		UserAgent:        input.UserAgent,
		IP:               input.IP,
		Device:           input.Device,
	}
	if err := sessionRepo.Create(ctx, session); err != nil {
		return "", "", errors.Wrap(err, "failed to create session")
	}

	accessToken, err := srv.tokenService.GenerateAccessToken(user, session.ID)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to generate access token")
	}

	refreshToken, err := srv.tokenService.GenerateRefreshToken(user.ID, session.ID, session.JTI)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to generate refresh token")
	}

	session.RefreshTokenHash = srv.tokenService.HashToken(refreshToken)
	if err := sessionRepo.Update(ctx, session); err != nil {
		return "", "", errors.Wrap(err, "failed to store refresh token hash")
	}

	return accessToken, refreshToken, nil
}

// Refresh rotates the refresh token. The stored hash is replaced, so the
// presented token cannot be replayed.
func (srv *userService) Refresh(ctx context.Context, input *usecase.RefreshInput) (*usecase.RefreshOutput, error) {
	srv.log(ctx).Debug("Attempting token refresh")

	claims, err := srv.tokenService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "invalid refresh token")
	}

	presentedHash := srv.tokenService.HashToken(input.RefreshToken)

	var accessToken, refreshToken string
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		sessionRepo := repoFactory.SessionRepo()
		userRepo := repoFactory.UserRepo()

		session, err := sessionRepo.FindByID(ctx, claims.SessionID)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				return domainerrors.ErrRefreshTokenInvalid
			}

			return errors.Wrap(err, "failed to find session")
		}

		if !session.Usable(time.Now()) {
			return domainerrors.ErrRefreshTokenInvalid
		}
		if session.RefreshTokenHash != presentedHash || session.JTI != claims.JTI {
			return domainerrors.ErrRefreshTokenInvalid
		}

		user, err := userRepo.FindByID(ctx, session.UserID)
		if err != nil {
			return errors.Wrap(err, "failed to find session user")
		}
		if !user.IsActive {
			return domainerrors.ErrUserInactive
		}

		accessToken, err = srv.tokenService.GenerateAccessToken(user, session.ID)
		if err != nil {
			return errors.Wrap(err, "failed to generate access token")
		}

		session.JTI = uuid.New().String()
		refreshToken, err = srv.tokenService.GenerateRefreshToken(user.ID, session.ID, session.JTI)
		if err != nil {
			return errors.Wrap(err, "failed to generate refresh token")
		}

		session.RefreshTokenHash = srv.tokenService.HashToken(refreshToken)
		session.RefreshExpiresAt = time.Now().Add(srv.tokenService.RefreshTokenDuration())

		return errors.Wrap(sessionRepo.Update(ctx, session), "failed to rotate refresh token")
	})
	if err != nil {
		srv.log(ctx).Warn("Token refresh failed", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute refresh transaction")
	}

	return &usecase.RefreshOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout revokes the caller's session. The refresh token must hash to the
// one stored on the session, so a stolen access token alone cannot end the
// session it names. Both tokens die with the revocation since the guard
// checks it on every request.
func (srv *userService) Logout(ctx context.Context, input *usecase.LogoutInput) error {
	srv.log(ctx).Info("Logging out", slog.Any("sessionID", input.SessionID))

	session, err := srv.sessionRepo.FindByID(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			// Already revoked and swept; logout is idempotent.
			return nil
		}

		return errors.Wrap(err, "failed to find session")
	}

	if session.RefreshTokenHash != srv.tokenService.HashToken(input.RefreshToken) {
		return errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "refresh token does not match session")
	}

	if err := srv.sessionRepo.Revoke(ctx, input.SessionID, time.Now()); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}

		return errors.Wrap(err, "failed to revoke session")
	}

	return nil
}

// LogoutAllDevices removes every session belonging to the user.
func (srv *userService) LogoutAllDevices(ctx context.Context, userID uuid.UUID) error {
	srv.log(ctx).Info("Logging out from all devices", slog.Any("userID", userID))

	if err := srv.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return errors.Wrap(err, "failed to delete user sessions")
	}

	return nil
}

// Me returns the authenticated user.
func (srv *userService) Me(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

// GetActiveSessions lists the user's usable sessions.
func (srv *userService) GetActiveSessions(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	sessions, err := srv.sessionRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}

	return sessions, nil
}

// RevokeSession revokes one of the user's own sessions by id.
func (srv *userService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	srv.log(ctx).Info("Revoking session", slog.Any("userID", userID), slog.Any("sessionID", sessionID))

	session, err := srv.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return domainerrors.ErrSessionMissing
		}

		return errors.Wrap(err, "failed to find session")
	}
	if session.UserID != userID {
		return errors.Wrap(domainerrors.ErrForbidden, "session does not belong to user")
	}

	return errors.Wrap(srv.sessionRepo.Revoke(ctx, sessionID, time.Now()), "failed to revoke session")
}
