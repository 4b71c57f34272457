package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coursehub/internal/domain/entity"
	"coursehub/internal/domain/repository"
	"coursehub/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guardTokenService struct {
	service.TokenService
	claims *service.AccessClaims
	err    error
}

func (s *guardTokenService) ValidateAccessToken(string) (*service.AccessClaims, error) {
	return s.claims, s.err
}

type guardSessionRepo struct {
	repository.SessionRepository
	session *entity.Session
	err     error
}

func (r *guardSessionRepo) FindByID(context.Context, uuid.UUID) (*entity.Session, error) {
	return r.session, r.err
}

type guardUserRepo struct {
	repository.UserRepository
	user *entity.User
	err  error
}

func (r *guardUserRepo) FindByID(context.Context, uuid.UUID) (*entity.User, error) {
	return r.user, r.err
}

type guardFixture struct {
	user    *entity.User
	session *entity.Session
	claims  *service.AccessClaims
}

func newGuardFixture() *guardFixture {
	userID := uuid.New()
	sessionID := uuid.New()

	return &guardFixture{
		user: &entity.User{
			ID:       userID,
			Email:    "sara@example.com",
			Role:     entity.RoleTrainee,
			IsActive: true,
		},
		session: &entity.Session{
			ID:               sessionID,
			UserID:           userID,
			RefreshExpiresAt: time.Now().Add(time.Hour),
		},
		claims: &service.AccessClaims{
			UserID:    userID,
			SessionID: sessionID,
			Email:     "sara@example.com",
			Role:      entity.RoleTrainee,
		},
	}
}

func (f *guardFixture) middleware(tokenErr, sessionErr, userErr error) *AuthMiddleware {
	return NewAuthMiddleware(
		&guardTokenService{claims: f.claims, err: tokenErr},
		&guardSessionRepo{session: f.session, err: sessionErr},
		&guardUserRepo{user: f.user, err: userErr},
	)
}

// runGuard sends a request through Authenticate and reports whether the
// inner handler ran.
func runGuard(t *testing.T, m *AuthMiddleware, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := m.Authenticate(func(c echo.Context) error {
		reached = true

		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))

	return rec, reached
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Run("populates the context on a valid token and session", func(t *testing.T) {
		fixture := newGuardFixture()
		m := fixture.middleware(nil, nil, nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := m.Authenticate(func(c echo.Context) error {
			assert.Equal(t, fixture.user.ID, c.Get(ContextUserID))
			assert.Equal(t, fixture.session.ID, c.Get(ContextSessionID))
			assert.Equal(t, entity.RoleTrainee, c.Get(ContextUserRole))
			assert.Equal(t, fixture.user, c.Get(ContextUser))

			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects a missing authorization header", func(t *testing.T) {
		fixture := newGuardFixture()
		rec, reached := runGuard(t, fixture.middleware(nil, nil, nil), "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("rejects a non-bearer header", func(t *testing.T) {
		fixture := newGuardFixture()
		rec, reached := runGuard(t, fixture.middleware(nil, nil, nil), "Basic dXNlcjpwdw==")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("rejects an invalid or expired token", func(t *testing.T) {
		fixture := newGuardFixture()
		rec, reached := runGuard(t, fixture.middleware(assert.AnError, nil, nil), "Bearer bad-token")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("rejects a token whose session is gone", func(t *testing.T) {
		fixture := newGuardFixture()
		rec, reached := runGuard(t, fixture.middleware(nil, repository.ErrSessionNotFound, nil), "Bearer good-token")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("rejects a revoked session before token expiry", func(t *testing.T) {
		fixture := newGuardFixture()
		revokedAt := time.Now().Add(-time.Minute)
		fixture.session.RevokedAt = &revokedAt

		rec, reached := runGuard(t, fixture.middleware(nil, nil, nil), "Bearer good-token")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
		assert.Contains(t, rec.Body.String(), "SESSION_INVALID")
	})

	t.Run("rejects a session past its refresh window", func(t *testing.T) {
		fixture := newGuardFixture()
		fixture.session.RefreshExpiresAt = time.Now().Add(-time.Minute)

		rec, reached := runGuard(t, fixture.middleware(nil, nil, nil), "Bearer good-token")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("rejects a deactivated account", func(t *testing.T) {
		fixture := newGuardFixture()
		fixture.user.IsActive = false

		rec, reached := runGuard(t, fixture.middleware(nil, nil, nil), "Bearer good-token")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
		assert.Contains(t, rec.Body.String(), "USER_INACTIVE")
	})

	t.Run("rejects a token whose account is gone", func(t *testing.T) {
		fixture := newGuardFixture()
		rec, reached := runGuard(t, fixture.middleware(nil, nil, repository.ErrUserNotFound), "Bearer good-token")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	runWithRole := func(t *testing.T, role any, allowed ...entity.Role) (*httptest.ResponseRecorder, bool) {
		t.Helper()

		fixture := newGuardFixture()
		m := fixture.middleware(nil, nil, nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/management/users", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set(ContextUserRole, role)
		}

		reached := false
		handler := m.RequireRole(allowed...)(func(c echo.Context) error {
			reached = true

			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, handler(c))

		return rec, reached
	}

	t.Run("allows a listed role", func(t *testing.T) {
		rec, reached := runWithRole(t, entity.RoleAdmin, entity.RoleAdmin, entity.RoleInstructor)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reached)
	})

	t.Run("denies an unlisted role", func(t *testing.T) {
		rec, reached := runWithRole(t, entity.RoleTrainee, entity.RoleAdmin)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, reached)
	})

	t.Run("denies when role information is missing", func(t *testing.T) {
		rec, reached := runWithRole(t, nil, entity.RoleAdmin)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, reached)
	})
}
