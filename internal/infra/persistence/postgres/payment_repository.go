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

// paymentRepository implements the domain's PaymentRepository interface using GORM.
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository is the constructor for paymentRepository.
func NewPaymentRepository(db *gorm.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

// Create persists a new pending payment and fills in its generated ID.
func (repo *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	paymentM := fromPaymentDomain(payment)

	if err := repo.db.WithContext(ctx).Create(paymentM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create payment")
	}

	payment.ID = paymentM.ID
	payment.CreatedAt = paymentM.CreatedAt
	payment.UpdatedAt = paymentM.UpdatedAt

	return nil
}

// FindByID retrieves a payment by its unique ID.
func (repo *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var paymentM model.PaymentModel
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&paymentM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPaymentNotFound
		}

		return nil, errors.Wrap(err, "failed to find payment by id")
	}

	return toPaymentDomain(&paymentM), nil
}

// FindByProviderOrderID retrieves a payment by the processor's order identifier.
func (repo *paymentRepository) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*entity.Payment, error) {
	var paymentM model.PaymentModel
	err := repo.db.WithContext(ctx).
		Where("provider_order_id = ?", providerOrderID).
		First(&paymentM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPaymentNotFound
		}

		return nil, errors.Wrap(err, "failed to find payment by provider order id")
	}

	return toPaymentDomain(&paymentM), nil
}

// Update modifies an existing payment.
func (repo *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	paymentM := fromPaymentDomain(payment)

	if err := repo.db.WithContext(ctx).Save(paymentM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to update payment")
	}

	payment.UpdatedAt = paymentM.UpdatedAt

	return nil
}

// MarkPaid transitions a pending payment to paid. The status guard in the
// WHERE clause makes the transition first-writer-wins; a second delivery
// matches zero rows and reports false.
func (repo *paymentRepository) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.PaymentModel{}).
		Where("id = ? AND status = ?", id, string(entity.PaymentPending)).
		Update("status", string(entity.PaymentPaid))
	if result.Error != nil {
		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to mark payment paid")
	}

	return result.RowsAffected > 0, nil
}

// DeleteStalePending removes pending payments created before the cutoff.
func (repo *paymentRepository) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(entity.PaymentPending), cutoff).
		Delete(&model.PaymentModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete stale pending payments")
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

// toPaymentDomain converts a GORM PaymentModel to a domain Payment entity.
func toPaymentDomain(data *model.PaymentModel) *entity.Payment {
	if data == nil {
		return nil
	}

	return &entity.Payment{
		ID:              data.ID,
		UserID:          data.UserID,
		CourseID:        data.CourseID,
		Provider:        entity.PaymentProvider(data.Provider),
		ProviderOrderID: data.ProviderOrderID,
		Status:          entity.PaymentStatus(data.Status),
		Amount:          data.Amount,
		Currency:        data.Currency,
		EnrollType:      entity.EnrollType(data.EnrollType),
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}
}

// fromPaymentDomain converts a domain Payment entity to a GORM PaymentModel.
func fromPaymentDomain(data *entity.Payment) *model.PaymentModel {
	if data == nil {
		return nil
	}

	return &model.PaymentModel{
		ID:              data.ID,
		UserID:          data.UserID,
		CourseID:        data.CourseID,
		Provider:        string(data.Provider),
		ProviderOrderID: data.ProviderOrderID,
		Status:          string(data.Status),
		Amount:          data.Amount,
		Currency:        data.Currency,
		EnrollType:      string(data.EnrollType),
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}
}
