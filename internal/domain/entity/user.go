// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Auth provider names stored on the User record.
const (
	// ProviderLocal marks an account created with email and password.
	ProviderLocal = "local"
	// ProviderGoogle marks an account created through Google Sign-In.
	ProviderGoogle = "google"
)

// User is the core entity in the system, representing a single account.
type User struct {
	ID           uuid.UUID // The unique identifier for the user.
	Email        string    // The user's login identifier, unique across the platform.
	Name         string    // The user's display name.
	PasswordHash string    // Bcrypt hash of the password. Empty for external providers.
	Role         Role      // The account role, driving authorization decisions.
	Provider     string    // Authentication origin: "local" or "google".
	AvatarURL    string    // Optional path under the uploads tree.

	IsEmailVerified       bool       // Whether the email address has been confirmed.
	VerificationTokenHash string     // SHA-256 hash of the pending verification token, if any.
	VerificationExpiresAt *time.Time // Expiry of the pending verification token.
	VerificationSentAt    *time.Time // When the last verification mail was dispatched.

	IsActive    bool       // Deactivated users cannot authenticate.
	LoginCount  int        // Number of successful logins.
	LastLoginAt *time.Time // Timestamp of the most recent login.

	CreatedAt time.Time
	UpdatedAt time.Time
}
