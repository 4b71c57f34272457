package model

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentModel mirrors the 'enrollments' table. The composite unique
// index on (user, course, type) is what makes concurrent fulfillment of the
// same purchase insert exactly one row.
type EnrollmentModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_user_course_type"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_user_course_type"`
	EnrollType string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_enrollments_user_course_type"`
	Status     string    `gorm:"type:varchar(10);not null;default:'ACTIVE'"`
	Amount     int64     `gorm:"not null;default:0"`
	Currency   string    `gorm:"type:varchar(3)"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Course *CourseModel `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (EnrollmentModel) TableName() string {
	return "enrollments"
}
