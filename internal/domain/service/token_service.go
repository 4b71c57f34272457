package service

import (
	"time"

	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
)

// AccessClaims are the verified claims carried by an access token.
type AccessClaims struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Email     string
	Role      entity.Role
}

// RefreshClaims are the verified claims carried by a refresh token.
type RefreshClaims struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	JTI       string
}

// TokenService defines the interface for generating and validating the JWT
// pair bound to a server-side session. This abstracts the details of token
// creation from the use cases.
type TokenService interface {
	// GenerateAccessToken signs a short-lived access token embedding the
	// user's identity, role and session id.
	GenerateAccessToken(user *entity.User, sessionID uuid.UUID) (string, error)

	// GenerateRefreshToken signs a long-lived refresh token embedding the
	// user id, session id and the session's jti.
	GenerateRefreshToken(userID, sessionID uuid.UUID, jti string) (string, error)

	// ValidateAccessToken checks an access token and returns its claims.
	ValidateAccessToken(token string) (*AccessClaims, error)

	// ValidateRefreshToken checks a refresh token and returns its claims.
	ValidateRefreshToken(token string) (*RefreshClaims, error)

	// HashToken returns the hex SHA-256 digest of a token, the only form
	// ever persisted.
	HashToken(token string) string

	// AccessTokenDuration returns the configured access token TTL.
	AccessTokenDuration() time.Duration

	// RefreshTokenDuration returns the configured refresh token TTL.
	RefreshTokenDuration() time.Duration
}
