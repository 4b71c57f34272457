package middleware

import (
	"strings"
	"time"

	"coursehub/internal/delivery/http/response"
	"coursehub/internal/domain/entity"
	"coursehub/internal/domain/repository"
	"coursehub/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Echo context keys populated by Authenticate.
const (
	ContextUserID    = "userID"
	ContextSessionID = "sessionID"
	ContextUserRole  = "userRole"
	ContextUser      = "user"
)

// AuthMiddleware provides middleware for JWT authentication and authorization.
// Beyond signature validation it checks the server-side session, so a revoked
// session rejects the token before its expiry.
type AuthMiddleware struct {
	tokenSvc    service.TokenService
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, sessionRepo repository.SessionRepository, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokenSvc:    tokenSvc,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
	}
}

// Authenticate validates the Bearer access token and its backing session.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "SESSION_MISSING", "Authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return response.Unauthorized(c, "SESSION_MISSING", "Invalid token format, must be Bearer token")
		}

		claims, err := m.tokenSvc.ValidateAccessToken(tokenString)
		if err != nil {
			return response.Unauthorized(c, "SESSION_INVALID", "Invalid or expired token")
		}

		session, err := m.sessionRepo.FindByID(c.Request().Context(), claims.SessionID)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				return response.Unauthorized(c, "SESSION_INVALID", "Session no longer exists")
			}

			return errors.WithStack(err)
		}
		if !session.Usable(time.Now()) {
			return response.Unauthorized(c, "SESSION_INVALID", "Session has been revoked or expired")
		}

		user, err := m.userRepo.FindByID(c.Request().Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return response.Unauthorized(c, "SESSION_INVALID", "Account no longer exists")
			}

			return errors.WithStack(err)
		}
		if !user.IsActive {
			return response.Unauthorized(c, "USER_INACTIVE", "Account has been deactivated")
		}

		// Set user info on the context for handlers to use
		c.Set(ContextUserID, user.ID)
		c.Set(ContextSessionID, session.ID)
		c.Set(ContextUserRole, user.Role)
		c.Set(ContextUser, user)

		return next(c)
	}
}

// RequireRole is a middleware factory that checks if the user has one of the
// given roles. It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextUserRole).(entity.Role)
			if !ok {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied: role information missing")
			}

			if !entity.Roles(roles).Contains(role) {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied")
			}

			return next(c)
		}
	}
}

// UserID returns the authenticated user's id stored by Authenticate.
func UserID(c echo.Context) uuid.UUID {
	id, _ := c.Get(ContextUserID).(uuid.UUID)

	return id
}

// SessionID returns the authenticated session's id stored by Authenticate.
func SessionID(c echo.Context) uuid.UUID {
	id, _ := c.Get(ContextSessionID).(uuid.UUID)

	return id
}

// UserRole returns the authenticated user's role stored by Authenticate.
func UserRole(c echo.Context) entity.Role {
	role, _ := c.Get(ContextUserRole).(entity.Role)

	return role
}
