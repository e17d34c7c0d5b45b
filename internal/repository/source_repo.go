package repository

import (
	"context"

	"github.com/user/source-crawler/internal/entity"
)

// SourceRepository defines the contract for crawl target configuration.
type SourceRepository interface {
	// Create stores a new source and returns its identifier.
	Create(ctx context.Context, source *entity.Source) (string, error)
	// Get returns ErrSourceNotFound when no source has the identifier.
	Get(ctx context.Context, id string) (*entity.Source, error)
	// List returns all sources, filtered by status when status is non-empty.
	List(ctx context.Context, status string) ([]entity.Source, error)
	Delete(ctx context.Context, id string) (bool, error)
}
