// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// SignupInput defines the data required to register a new account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput defines the data required for a user to log in. The client
// metadata fields are captured from the request and stored on the session.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IP        string
	Device    string
}

// RefreshInput carries the refresh token presented for rotation.
type RefreshInput struct {
	RefreshToken string
}

// LogoutInput names the session from the caller's access token and carries
// the refresh token that must match it.
type LogoutInput struct {
	SessionID    uuid.UUID
	RefreshToken string
}

// --- Output DTOs ---

// SignupOutput returns the newly created user's basic information.
type SignupOutput struct {
	User *entity.User
}

// LoginOutput returns the token pair after a successful login.
type LoginOutput struct {
	AccessToken  string
	RefreshToken string
	User         *entity.User
}

// RefreshOutput returns the rotated token pair.
type RefreshOutput struct {
	AccessToken  string
	RefreshToken string
}

// UserUsecase defines the interface for account and session operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	Signup(ctx context.Context, input *SignupInput) (*SignupOutput, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	// Refresh rotates the presented refresh token: the stored hash is
	// replaced, so each refresh token is usable exactly once.
	Refresh(ctx context.Context, input *RefreshInput) (*RefreshOutput, error)

	// Logout revokes the session named by the caller's access token after
	// checking that the presented refresh token belongs to it.
	Logout(ctx context.Context, input *LogoutInput) error

	// LogoutAllDevices removes every session belonging to the user.
	LogoutAllDevices(ctx context.Context, userID uuid.UUID) error

	// Me returns the authenticated user.
	Me(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// GetActiveSessions lists the user's usable sessions.
	GetActiveSessions(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error)

	// RevokeSession revokes one of the user's own sessions by id.
	RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error
}
