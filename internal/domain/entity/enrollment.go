// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// EnrollType distinguishes how a user was granted access to a course.
type EnrollType string

const (
	// EnrollTypePaid marks an enrollment created by a completed payment.
	EnrollTypePaid EnrollType = "PAID"
	// EnrollTypeManual marks an enrollment granted by a manager.
	EnrollTypeManual EnrollType = "MANUAL"
)

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	// EnrollmentActive grants course access.
	EnrollmentActive EnrollmentStatus = "ACTIVE"
	// EnrollmentRevoked marks access removed by a manager.
	EnrollmentRevoked EnrollmentStatus = "REVOKED"
)

// Enrollment is the join entity granting a user access to a course.
// (UserID, CourseID, EnrollType) is unique at the database level, which is
// what makes concurrent webhook fulfillment safe.
type Enrollment struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CourseID   uuid.UUID
	Status     EnrollmentStatus
	EnrollType EnrollType
	Amount     int64  // Price snapshot at grant time, zero for manual grants.
	Currency   string // Currency of the snapshot, empty for manual grants.
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
