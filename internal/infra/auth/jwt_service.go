// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"coursehub/config"
	"coursehub/internal/domain/entity"
	"coursehub/internal/domain/service"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// accessTokenClaims is the wire form of an access token.
type accessTokenClaims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// refreshTokenClaims is the wire form of a refresh token. The session jti
// travels in the registered ID ("jti") claim.
type refreshTokenClaims struct {
	SessionID string `json:"sid"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	accessSecret  string        // Secret key for signing access tokens.
	refreshSecret string        // Secret key for signing refresh tokens.
	accessTTL     time.Duration // Time-to-live for access tokens.
	refreshTTL    time.Duration // Time-to-live for refresh tokens.
}

// NewJWTService is the constructor for jwtService.
// It takes configuration values to create a new token service instance.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" || cfg.SecretKey.Refresh == "" {
		return nil, errors.New("jwt secrets must be provided")
	}

	return &jwtService{
		accessSecret:  cfg.SecretKey.Access,
		refreshSecret: cfg.SecretKey.Refresh,
		accessTTL:     cfg.Auth.AccessTokenTTL,
		refreshTTL:    cfg.Auth.RefreshTokenTTL,
	}, nil
}

// GenerateAccessToken signs a short-lived access token bound to a session.
func (s *jwtService) GenerateAccessToken(user *entity.User, sessionID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &accessTokenClaims{
		SessionID: sessionID.String(),
		Email:     user.Email,
		Role:      user.Role.String(),
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(s.accessSecret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}

	return signed, nil
}

// GenerateRefreshToken signs a long-lived refresh token bound to a session and its jti.
func (s *jwtService) GenerateRefreshToken(userID, sessionID uuid.UUID, jti string) (string, error) {
	now := time.Now()
	claims := &refreshTokenClaims{
		SessionID: sessionID.String(),
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(s.refreshSecret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign refresh token")
	}

	return signed, nil
}

// ValidateAccessToken checks an access token and returns its verified claims.
func (s *jwtService) ValidateAccessToken(tokenString string) (*service.AccessClaims, error) {
	claims := &accessTokenClaims{}
	if err := s.parse(tokenString, s.accessSecret, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, errors.New("token is not an access token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(err, "invalid subject claim")
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid sid claim")
	}

	return &service.AccessClaims{
		UserID:    userID,
		SessionID: sessionID,
		Email:     claims.Email,
		Role:      entity.Role(claims.Role),
	}, nil
}

// ValidateRefreshToken checks a refresh token and returns its verified claims.
func (s *jwtService) ValidateRefreshToken(tokenString string) (*service.RefreshClaims, error) {
	claims := &refreshTokenClaims{}
	if err := s.parse(tokenString, s.refreshSecret, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, errors.New("token is not a refresh token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(err, "invalid subject claim")
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid sid claim")
	}

	return &service.RefreshClaims{
		UserID:    userID,
		SessionID: sessionID,
		JTI:       claims.ID,
	}, nil
}

// HashToken returns the hex SHA-256 digest of a token for storage and lookup.
func (s *jwtService) HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

// AccessTokenDuration returns the configured duration for access tokens.
func (s *jwtService) AccessTokenDuration() time.Duration {
	return s.accessTTL
}

// RefreshTokenDuration returns the configured duration for refresh tokens.
func (s *jwtService) RefreshTokenDuration() time.Duration {
	return s.refreshTTL
}

// parse verifies the signature and registered claims of a token string.
func (s *jwtService) parse(tokenString, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return []byte(secret), nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to parse token structure")
	}
	if !token.Valid {
		return errors.New("token is not valid")
	}

	return nil
}
