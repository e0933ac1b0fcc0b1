// Package storage defines the persistence interface for indexed segments and the index manifest.
package storage

import (
	"context"

	"github.com/hyperjump/banglaqa/internal/models"
)

// Storage defines segment and manifest persistence operations.
type Storage interface {
	// Segment operations
	ReplaceSegments(ctx context.Context, segments []*models.Segment) error
	ListSegments(ctx context.Context) ([]*models.Segment, error)

	// Manifest operations
	PutManifest(ctx context.Context, manifest *models.Manifest) error
	GetManifest(ctx context.Context) (*models.Manifest, error)

	// Stats
	CountSegments(ctx context.Context) (int64, error)

	Close() error
}
