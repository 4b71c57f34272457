package model

import (
	"time"

	"github.com/google/uuid"
)

// CourseModel mirrors the 'courses' table. Prices are stored in minor units
// per currency; a zero price means the course is not purchasable in that
// currency.
type CourseModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Slug         string    `gorm:"type:varchar(255);unique;not null"`
	Title        string    `gorm:"type:varchar(255);not null"`
	Description  string    `gorm:"type:text"`
	PriceUSD     int64     `gorm:"not null;default:0"`
	PriceEGP     int64     `gorm:"not null;default:0"`
	IsPublished  bool      `gorm:"not null;default:false;index"`
	Position     int       `gorm:"not null;default:0"`
	InstructorID uuid.UUID `gorm:"type:uuid"`
	ThumbnailURL string    `gorm:"type:varchar(512)"`
	BrochurePath string    `gorm:"type:varchar(512)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Categories []*CategoryModel `gorm:"many2many:courses_categories"`
}

// TableName explicitly sets the table name for GORM.
func (CourseModel) TableName() string {
	return "courses"
}

// CategoryModel mirrors the 'categories' table.
type CategoryModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Slug        string    `gorm:"type:varchar(100);unique;not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Courses []*CourseModel `gorm:"many2many:courses_categories"`
}

// TableName explicitly sets the table name for GORM.
func (CategoryModel) TableName() string {
	return "categories"
}
