package service

import (
	"context"

	"coursehub/internal/domain/entity"
)

// CatalogCache caches the public course listing. Reads that miss fall
// through to the database; every catalog write invalidates the entry.
type CatalogCache interface {
	// GetPublished returns the cached published listing, or (nil, nil)
	// on a miss. Cache errors are treated as misses by callers.
	GetPublished(ctx context.Context) ([]*entity.Course, error)

	// SetPublished stores the published listing.
	SetPublished(ctx context.Context, courses []*entity.Course) error

	// Invalidate drops the cached listing.
	Invalidate(ctx context.Context) error
}
