package repository

import (
	"context"

	"github.com/user/source-crawler/internal/entity"
)

// CrawlLogRepository defines the interface for the append-only crawl log.
type CrawlLogRepository interface {
	// LogResult appends one crawl outcome and returns its identifier.
	LogResult(ctx context.Context, result entity.CrawlResult) (string, error)
	// Recent returns the newest log entries first.
	Recent(ctx context.Context, limit int) ([]entity.CrawlResult, error)
}

// StatusRepository caches the latest crawl outcomes per source.
type StatusRepository interface {
	// SaveLatest records result as the newest outcome for its source.
	SaveLatest(ctx context.Context, result entity.CrawlResult) error
	// Latest returns ErrSourceNotFound when nothing is cached for the source.
	Latest(ctx context.Context, sourceID string) (*entity.CrawlResult, error)
	// History returns up to limit cached outcomes, newest first.
	History(ctx context.Context, sourceID string, limit int) ([]entity.CrawlResult, error)
}
