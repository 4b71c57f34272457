package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentModel mirrors the 'payments' table. The row is inserted before the
// provider is contacted, so ProviderOrderID is filled in by a later update.
type PaymentModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index"`
	CourseID        uuid.UUID `gorm:"type:uuid;not null"`
	Provider        string    `gorm:"type:varchar(20);not null"`
	ProviderOrderID string    `gorm:"type:varchar(255);index"`
	Status          string    `gorm:"type:varchar(10);not null;default:'pending';index"`
	Amount          int64     `gorm:"not null"`
	Currency        string    `gorm:"type:varchar(3);not null"`
	EnrollType      string    `gorm:"type:varchar(10);not null;default:'PAID'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName explicitly sets the table name for GORM.
func (PaymentModel) TableName() string {
	return "payments"
}
