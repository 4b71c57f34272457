package auth

import (
	"testing"
	"time"

	"coursehub/config"
	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T) *jwtService {
	cfg := &config.Config{}
	cfg.SecretKey.Access = "test-access-secret"
	cfg.SecretKey.Refresh = "test-refresh-secret"
	cfg.Auth = &config.AuthConfig{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}

	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	return svc.(*jwtService)
}

func testUser() *entity.User {
	return &entity.User{
		ID:    uuid.New(),
		Email: "trainee@example.com",
		Role:  entity.RoleTrainee,
	}
}

func TestNewJWTService_RequiresSecrets(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth = &config.AuthConfig{}

	_, err := NewJWTService(cfg)
	assert.Error(t, err)
}

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	svc := newTestJWTService(t)
	user := testUser()
	sessionID := uuid.New()

	token, err := svc.GenerateAccessToken(user, sessionID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, entity.RoleTrainee, claims.Role)
}

func TestJWTService_RefreshTokenRoundTrip(t *testing.T) {
	svc := newTestJWTService(t)
	userID := uuid.New()
	sessionID := uuid.New()
	jti := uuid.New().String()

	token, err := svc.GenerateRefreshToken(userID, sessionID, jti)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, jti, claims.JTI)
}

func TestJWTService_RejectsCrossTypeTokens(t *testing.T) {
	svc := newTestJWTService(t)
	user := testUser()
	sessionID := uuid.New()

	accessToken, err := svc.GenerateAccessToken(user, sessionID)
	require.NoError(t, err)
	refreshToken, err := svc.GenerateRefreshToken(user.ID, sessionID, uuid.New().String())
	require.NoError(t, err)

	// An access token must not pass refresh validation and vice versa;
	// the two use different secrets and carry a type claim.
	_, err = svc.ValidateRefreshToken(accessToken)
	assert.Error(t, err)
	_, err = svc.ValidateAccessToken(refreshToken)
	assert.Error(t, err)
}

func TestJWTService_RejectsTamperedToken(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.GenerateAccessToken(testUser(), uuid.New())
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.ValidateAccessToken(tampered)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	cfg := &config.Config{}
	cfg.SecretKey.Access = "test-access-secret"
	cfg.SecretKey.Refresh = "test-refresh-secret"
	cfg.Auth = &config.AuthConfig{
		AccessTokenTTL:  -time.Minute,
		RefreshTokenTTL: -time.Minute,
	}

	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(testUser(), uuid.New())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_HashTokenIsStableAndOpaque(t *testing.T) {
	svc := newTestJWTService(t)

	first := svc.HashToken("some-token")
	second := svc.HashToken("some-token")
	other := svc.HashToken("another-token")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64) // hex sha-256
	assert.NotContains(t, first, "some-token")
}
