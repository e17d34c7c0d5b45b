package repository

import (
	"context"
	"time"

	"github.com/user/source-crawler/internal/entity"
)

// ItemRepository defines the contract for persisting extracted items.
// Implementations assign each item's CollectedAt timestamp.
type ItemRepository interface {
	// StoreItem persists a single item and returns its identifier.
	StoreItem(ctx context.Context, item entity.DataItem) (string, error)
	// StoreItems persists items in bulk and returns their identifiers in order.
	StoreItems(ctx context.Context, items []entity.DataItem) ([]string, error)
}

// ItemQueryRepository defines the read side used by search.
type ItemQueryRepository interface {
	SearchByKeyword(ctx context.Context, keyword string, limit int) ([]entity.DataItem, error)
	FindBySource(ctx context.Context, sourceID string, limit int) ([]entity.DataItem, error)
	FindRecent(ctx context.Context, limit int) ([]entity.DataItem, error)
	FindByDateRange(ctx context.Context, start, end time.Time) ([]entity.DataItem, error)
	Stats(ctx context.Context) (*entity.Stats, error)
}
