// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"time"

	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrSessionNotFound is returned when a session row does not exist.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository defines persistence operations for login sessions.
// A session row backs server-side revocation of JWT pairs.
type SessionRepository interface {
	// Create persists a new session and fills in its generated ID.
	Create(ctx context.Context, session *entity.Session) error

	// FindByID retrieves a session by its unique ID (the "sid" claim).
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)

	// FindByUserID retrieves all usable sessions for a user, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error)

	// CountActiveByUserID returns the number of usable sessions for a
	// user, used to enforce the configured session limit.
	CountActiveByUserID(ctx context.Context, userID uuid.UUID) (int, error)

	// Update replaces the stored refresh token hash and expiry,
	// used by rotation.
	Update(ctx context.Context, session *entity.Session) error

	// Revoke marks a session revoked at the given time.
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error

	// DeleteByUserID removes all sessions for a user.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes sessions whose refresh window ended before
	// the cutoff, plus sessions revoked before it. Returns the number
	// of rows removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
