package impl

import (
	"context"
	"strings"
	"testing"
	"time"

	"coursehub/config"
	domainerrors "coursehub/internal/domain/errors"
	"coursehub/internal/domain/service"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerificationService(store *memStore, ttl, resendAfter time.Duration) (usecase.VerificationUsecase, *fakeDispatcher) {
	dispatcher := &fakeDispatcher{}
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			VerificationTTL:    ttl,
			VerificationResend: resendAfter,
		},
	}
	svc := NewVerificationService(VerificationServiceParams{
		TxManager:    &memTxManager{store: store},
		TokenService: fakeTokenService{},
		Dispatcher:   dispatcher,
		Config:       cfg,
		Logger:       newDiscardLogger(),
	})

	return svc, dispatcher
}

func TestVerificationService_RequestVerification(t *testing.T) {
	t.Run("stores the token hash and mails the plaintext", func(t *testing.T) {
		store := newMemStore()
		svc, dispatcher := newTestVerificationService(store, time.Hour, time.Minute)
		user := seedUser(store, "sara@example.com", "secret123", true)

		require.NoError(t, svc.RequestVerification(context.Background(), user.ID))

		require.Len(t, dispatcher.tasks, 1)
		task := dispatcher.tasks[0]
		assert.Equal(t, service.MailVerification, task.Kind)
		assert.Equal(t, user.Email, task.To)
		assert.NotEmpty(t, task.Token)

		stored := store.users[user.ID]
		assert.Equal(t, "sha$"+task.Token, stored.VerificationTokenHash)
		require.NotNil(t, stored.VerificationExpiresAt)
		assert.True(t, stored.VerificationExpiresAt.After(time.Now()))
		require.NotNil(t, stored.VerificationSentAt)
	})

	t.Run("throttles rapid resends", func(t *testing.T) {
		store := newMemStore()
		svc, dispatcher := newTestVerificationService(store, time.Hour, time.Minute)
		user := seedUser(store, "sara@example.com", "secret123", true)

		require.NoError(t, svc.RequestVerification(context.Background(), user.ID))

		err := svc.RequestVerification(context.Background(), user.ID)
		assert.ErrorIs(t, err, domainerrors.ErrVerificationThrottled)
		assert.Len(t, dispatcher.tasks, 1)
	})

	t.Run("allows a resend after the window and rotates the token", func(t *testing.T) {
		store := newMemStore()
		svc, dispatcher := newTestVerificationService(store, time.Hour, time.Minute)
		user := seedUser(store, "sara@example.com", "secret123", true)

		require.NoError(t, svc.RequestVerification(context.Background(), user.ID))
		firstToken := dispatcher.tasks[0].Token

		sentAt := time.Now().Add(-2 * time.Minute)
		store.users[user.ID].VerificationSentAt = &sentAt

		require.NoError(t, svc.RequestVerification(context.Background(), user.ID))
		require.Len(t, dispatcher.tasks, 2)
		assert.NotEqual(t, firstToken, dispatcher.tasks[1].Token)
		assert.Equal(t, "sha$"+dispatcher.tasks[1].Token, store.users[user.ID].VerificationTokenHash)
	})

	t.Run("rejects an already verified account", func(t *testing.T) {
		store := newMemStore()
		svc, _ := newTestVerificationService(store, time.Hour, time.Minute)
		user := seedUser(store, "sara@example.com", "secret123", true)
		user.IsEmailVerified = true

		err := svc.RequestVerification(context.Background(), user.ID)
		assert.ErrorIs(t, err, domainerrors.ErrAlreadyVerified)
	})

	t.Run("reports an unknown user", func(t *testing.T) {
		store := newMemStore()
		svc, _ := newTestVerificationService(store, time.Hour, time.Minute)

		err := svc.RequestVerification(context.Background(), uuid.New())
		assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	})
}

func TestVerificationService_VerifyEmail(t *testing.T) {
	issue := func(t *testing.T, store *memStore, svc usecase.VerificationUsecase, dispatcher *fakeDispatcher) (uuid.UUID, string) {
		t.Helper()
		user := seedUser(store, "sara@example.com", "secret123", true)
		require.NoError(t, svc.RequestVerification(context.Background(), user.ID))
		require.Len(t, dispatcher.tasks, 1)

		return user.ID, dispatcher.tasks[0].Token
	}

	t.Run("consumes the token exactly once", func(t *testing.T) {
		store := newMemStore()
		svc, dispatcher := newTestVerificationService(store, time.Hour, time.Minute)
		userID, token := issue(t, store, svc, dispatcher)

		require.NoError(t, svc.VerifyEmail(context.Background(), token))

		verified := store.users[userID]
		assert.True(t, verified.IsEmailVerified)
		assert.Empty(t, verified.VerificationTokenHash)
		assert.Nil(t, verified.VerificationExpiresAt)

		// The consumed token cannot be replayed.
		err := svc.VerifyEmail(context.Background(), token)
		assert.ErrorIs(t, err, domainerrors.ErrVerificationInvalid)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		store := newMemStore()
		svc, dispatcher := newTestVerificationService(store, -time.Minute, time.Minute)
		userID, token := issue(t, store, svc, dispatcher)

		err := svc.VerifyEmail(context.Background(), token)
		assert.ErrorIs(t, err, domainerrors.ErrVerificationInvalid)
		assert.False(t, store.users[userID].IsEmailVerified)
	})

	t.Run("rejects unknown and empty tokens", func(t *testing.T) {
		store := newMemStore()
		svc, _ := newTestVerificationService(store, time.Hour, time.Minute)

		assert.ErrorIs(t, svc.VerifyEmail(context.Background(), "bogus"), domainerrors.ErrVerificationInvalid)
		assert.ErrorIs(t, svc.VerifyEmail(context.Background(), ""), domainerrors.ErrVerificationInvalid)
	})
}

func TestGenerateVerificationToken(t *testing.T) {
	first, err := generateVerificationToken()
	require.NoError(t, err)
	second, err := generateVerificationToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, first, verificationTokenBytes*2)
	assert.Equal(t, strings.ToLower(first), first)
}
