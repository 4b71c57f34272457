// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Course represents a single item in the catalog. Prices are kept per
// currency because checkout routes Egyptian buyers to Paymob in EGP and
// everyone else to Stripe in USD.
type Course struct {
	ID           uuid.UUID
	Slug         string // URL-safe unique identifier, used by the public catalog.
	Title        string
	Description  string
	PriceUSD     int64 // Price in USD cents. Zero means not purchasable via Stripe.
	PriceEGP     int64 // Price in EGP piasters. Zero means not purchasable via Paymob.
	IsPublished  bool  // Unpublished courses are hidden from the public catalog.
	Position     int   // Explicit manual ordering within the catalog.
	InstructorID uuid.UUID
	ThumbnailURL string // Optional path under the uploads tree.
	BrochurePath string // Optional path of the PDF brochure under the uploads tree.
	Categories   []*Category
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PriceFor returns the price of the course in the given currency.
// An unknown currency yields zero, which checkout rejects.
func (c *Course) PriceFor(currency string) int64 {
	switch currency {
	case CurrencyUSD:
		return c.PriceUSD
	case CurrencyEGP:
		return c.PriceEGP
	default:
		return 0
	}
}

// Category groups courses; courses and categories are many-to-many.
type Category struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CoursePosition is one element of a bulk reorder request.
type CoursePosition struct {
	CourseID uuid.UUID
	Position int
}
