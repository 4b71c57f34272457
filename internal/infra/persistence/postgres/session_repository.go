package postgres

import (
	"context"
	"time"

	"coursehub/internal/domain/entity"
	domainerrors "coursehub/internal/domain/errors"
	"coursehub/internal/domain/repository"
	"coursehub/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// sessionRepository implements the domain's SessionRepository interface using GORM.
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository is the constructor for sessionRepository.
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Create persists a new session and fills in its generated ID.
func (repo *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	sessionM := fromSessionDomain(session)

	if err := repo.db.WithContext(ctx).Create(sessionM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create session")
	}

	session.ID = sessionM.ID
	session.CreatedAt = sessionM.CreatedAt

	return nil
}

// FindByID retrieves a session by its unique ID.
func (repo *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var sessionM model.SessionModel
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&sessionM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to find session by id")
	}

	return toSessionDomain(&sessionM), nil
}

// FindByUserID retrieves all usable sessions for a user, newest first.
func (repo *sessionRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	var sessionMs []*model.SessionModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL AND refresh_expires_at > ?", userID, time.Now()).
		Order("created_at DESC").
		Find(&sessionMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions by user id")
	}

	sessions := make([]*entity.Session, 0, len(sessionMs))
	for _, sessionM := range sessionMs {
		sessions = append(sessions, toSessionDomain(sessionM))
	}

	return sessions, nil
}

// CountActiveByUserID returns the number of usable sessions for a user.
func (repo *sessionRepository) CountActiveByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("user_id = ? AND revoked_at IS NULL AND refresh_expires_at > ?", userID, time.Now()).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count active sessions")
	}

	return int(count), nil
}

// Update replaces the stored refresh token hash and expiry, used by rotation.
func (repo *sessionRepository) Update(ctx context.Context, session *entity.Session) error {
	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("id = ?", session.ID).
		Updates(map[string]any{
			"refresh_token_hash": session.RefreshTokenHash,
			"refresh_expires_at": session.RefreshExpiresAt,
			"jti":                session.JTI,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update session")
	}
	if result.RowsAffected == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

// Revoke marks a session revoked at the given time.
func (repo *sessionRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to revoke session")
	}
	if result.RowsAffected == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

// DeleteByUserID removes all sessions for a user.
func (repo *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.SessionModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete sessions by user id")
	}

	return nil
}

// DeleteExpired removes sessions whose refresh window ended before the
// cutoff, plus sessions revoked before it.
func (repo *sessionRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("refresh_expires_at < ? OR revoked_at < ?", cutoff, cutoff).
		Delete(&model.SessionModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete expired sessions")
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

// toSessionDomain converts a GORM SessionModel to a domain Session entity.
func toSessionDomain(data *model.SessionModel) *entity.Session {
	if data == nil {
		return nil
	}

	return &entity.Session{
		ID:               data.ID,
		UserID:           data.UserID,
		RefreshTokenHash: data.RefreshTokenHash,
		RefreshExpiresAt: data.RefreshExpiresAt,
		JTI:              data.JTI,
		UserAgent:        data.UserAgent,
		IP:               data.IP,
		Device:           data.Device,
		RevokedAt:        copyTime(data.RevokedAt),
		CreatedAt:        data.CreatedAt,
	}
}

// fromSessionDomain converts a domain Session entity to a GORM SessionModel.
func fromSessionDomain(data *entity.Session) *model.SessionModel {
	if data == nil {
		return nil
	}

	return &model.SessionModel{
		ID:               data.ID,
		UserID:           data.UserID,
		RefreshTokenHash: data.RefreshTokenHash,
		RefreshExpiresAt: data.RefreshExpiresAt,
		JTI:              data.JTI,
		UserAgent:        data.UserAgent,
		IP:               data.IP,
		Device:           data.Device,
		RevokedAt:        copyTime(data.RevokedAt),
		CreatedAt:        data.CreatedAt,
	}
}
