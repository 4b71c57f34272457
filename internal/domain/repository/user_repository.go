// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"
	"time"

	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByVerificationHash retrieves a user by the hash of a pending
	// email verification token.
	FindByVerificationHash(ctx context.Context, tokenHash string) (*entity.User, error)

	// List retrieves users ordered by creation time, newest first.
	List(ctx context.Context, offset, limit int) ([]*entity.User, int64, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// Update modifies an existing user entity in the storage.
	Update(ctx context.Context, user *entity.User) error

	// Delete removes a user. Sessions and enrollments cascade at the
	// database level.
	Delete(ctx context.Context, id uuid.UUID) error

	// ClearExpiredVerifications drops verification tokens whose expiry
	// passed before now. Returns the number of rows touched.
	ClearExpiredVerifications(ctx context.Context, now time.Time) (int64, error)

	// AcquireSessionMutex locks the user row for the duration of the
	// surrounding transaction, serializing concurrent session creation
	// so the active-session count stays accurate.
	AcquireSessionMutex(ctx context.Context, id uuid.UUID) error
}
