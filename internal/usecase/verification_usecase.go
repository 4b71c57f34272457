package usecase

import (
	"context"

	"github.com/google/uuid"
)

// VerificationUsecase defines the email verification flow. Tokens are
// random, stored only as SHA-256 hashes, and expire after the configured TTL.
type VerificationUsecase interface {
	// RequestVerification generates a fresh token for the user and queues
	// the verification mail. Resends are throttled per user.
	RequestVerification(ctx context.Context, userID uuid.UUID) error

	// VerifyEmail consumes a plaintext token from the confirmation link,
	// marks the address verified and clears the pending token.
	VerifyEmail(ctx context.Context, token string) error
}
