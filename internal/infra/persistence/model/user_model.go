package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Email        string    `gorm:"type:varchar(255);unique;not null"`
	Name         string    `gorm:"type:varchar(100);not null"`
	PasswordHash string    `gorm:"type:varchar(255)"`
	Role         string    `gorm:"type:varchar(20);not null;default:'TRAINEE'"`
	Provider     string    `gorm:"type:varchar(20);not null;default:'local'"`
	AvatarURL    string    `gorm:"type:varchar(512)"`

	IsEmailVerified       bool       `gorm:"not null;default:false"`
	VerificationTokenHash string     `gorm:"type:varchar(64);index"`
	VerificationExpiresAt *time.Time
	VerificationSentAt    *time.Time

	IsActive    bool `gorm:"not null;default:true"`
	LoginCount  int  `gorm:"not null;default:0"`
	LastLoginAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Sessions    []SessionModel    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Enrollments []EnrollmentModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
