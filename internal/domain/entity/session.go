// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a single authenticated login. One row is created per
// login; its ID travels inside both tokens as the "sid" claim so the server
// can revoke a session without waiting for token expiry.
type Session struct {
	ID               uuid.UUID  // The unique ID of this session; matches the "sid" claim.
	UserID           uuid.UUID  // Links this session to the User it belongs to.
	RefreshTokenHash string     // SHA-256 hash of the current refresh token. Never the plaintext.
	RefreshExpiresAt time.Time  // When the refresh token (and so the session) expires.
	JTI              string     // Random token identifier embedded in the refresh token claims.
	UserAgent        string     // Optional client metadata captured at login.
	IP               string     // Optional client address captured at login.
	Device           string     // Optional client-supplied device label.
	RevokedAt        *time.Time // Non-nil once the session has been revoked by logout.
	CreatedAt        time.Time
}

// Revoked reports whether the session has been explicitly revoked.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// Expired reports whether the session's refresh window has passed.
func (s *Session) Expired(now time.Time) bool {
	return s.RefreshExpiresAt.Before(now)
}

// Usable reports whether the session can still back authenticated requests.
func (s *Session) Usable(now time.Time) bool {
	return !s.Revoked() && !s.Expired(now)
}
