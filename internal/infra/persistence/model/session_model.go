package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionModel mirrors the 'sessions' table. One row per login; the row ID
// is the "sid" claim carried inside the issued token pair.
type SessionModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index"`
	RefreshTokenHash string    `gorm:"type:varchar(64);not null"`
	RefreshExpiresAt time.Time `gorm:"not null;index"`
	JTI              string    `gorm:"type:varchar(64);not null"`
	UserAgent        string    `gorm:"type:varchar(512)"`
	IP               string    `gorm:"type:varchar(45)"`
	Device           string    `gorm:"type:varchar(100)"`
	RevokedAt        *time.Time
	CreatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}
