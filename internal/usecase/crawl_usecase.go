package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/extractor"
	"github.com/user/source-crawler/internal/repository"
	"github.com/user/source-crawler/pkg/metrics"
	"github.com/user/source-crawler/pkg/utils"
)

var (
	// ErrInvalidURL is reported when a source URL is missing or not http(s).
	ErrInvalidURL = errors.New("invalid source url")
)

// MsgNoData is the message recorded for a reachable source that yielded nothing.
const MsgNoData = "No data extracted from source"

// ExtractorSet resolves the extractor for a source type.
type ExtractorSet interface {
	For(t entity.SourceType) (extractor.Extractor, error)
}

// Crawler defines the interface for crawling a single source.
type Crawler interface {
	// Crawl always returns a result; failures are reported in its status and errors.
	Crawl(ctx context.Context, src entity.Source) entity.CrawlResult
}

// Dispatcher routes a source to its extractor, stores what it yields and
// records the outcome.
type Dispatcher struct {
	extractors ExtractorSet
	itemRepo   repository.ItemRepository
	logRepo    repository.CrawlLogRepository
	statusRepo repository.StatusRepository
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewDispatcher creates a new dispatcher. itemRepo, logRepo and statusRepo may
// be nil: without an item store every crawl that yields items is an error,
// without the other two nothing is recorded.
func NewDispatcher(
	extractors ExtractorSet,
	itemRepo repository.ItemRepository,
	logRepo repository.CrawlLogRepository,
	statusRepo repository.StatusRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		extractors: extractors,
		itemRepo:   itemRepo,
		logRepo:    logRepo,
		statusRepo: statusRepo,
		metrics:    m,
		logger:     logger,
	}
}

func (d *Dispatcher) Crawl(ctx context.Context, src entity.Source) entity.CrawlResult {
	start := time.Now()
	result := entity.CrawlResult{
		SourceID: src.ID,
		URL:      src.URL,
		Errors:   []string{},
	}

	d.logger.Info("Crawling source", zap.String("source_id", src.ID), zap.String("url", src.URL), zap.String("type", string(src.Type)))

	items, err := d.extract(ctx, src)
	switch {
	case err != nil:
		result.Fail(err.Error())
	case len(items) == 0:
		result.Status = entity.CrawlStatusNoData
		result.Errors = append(result.Errors, MsgNoData)
	default:
		if err := d.store(ctx, src.Type, items); err != nil {
			result.Fail(err.Error())
		} else {
			result.Status = entity.CrawlStatusSuccess
			result.ItemsCollected = len(items)
		}
	}

	d.record(ctx, src, result, time.Since(start))
	return result
}

func (d *Dispatcher) extract(ctx context.Context, src entity.Source) (items []entity.DataItem, err error) {
	if src.URL == "" || !utils.IsNetworkURL(src.URL) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, src.URL)
	}

	ex, err := d.extractors.For(src.Type)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Extractor panicked", zap.String("url", src.URL), zap.Any("panic", r))
			items, err = nil, fmt.Errorf("extraction aborted: %v", r)
		}
	}()
	return ex.Extract(ctx, src)
}

// store hands items to the item repository. Single-item kinds use the
// single-record path.
func (d *Dispatcher) store(ctx context.Context, typ entity.SourceType, items []entity.DataItem) error {
	if d.itemRepo == nil {
		return repository.ErrStoreUnavailable
	}

	var err error
	if typ.SingleItem() && len(items) == 1 {
		_, err = d.itemRepo.StoreItem(ctx, items[0])
	} else {
		_, err = d.itemRepo.StoreItems(ctx, items)
	}
	if errors.Is(err, repository.ErrStoreUnavailable) {
		return repository.ErrStoreUnavailable
	}
	return err
}

// record appends the result to the crawl log, refreshes the cached status and
// updates metrics. Failures here are logged only.
func (d *Dispatcher) record(ctx context.Context, src entity.Source, result entity.CrawlResult, elapsed time.Duration) {
	typ := string(src.Type)
	d.metrics.CrawlsTotal.WithLabelValues(typ, string(result.Status)).Inc()
	d.metrics.CrawlDuration.WithLabelValues(typ).Observe(elapsed.Seconds())
	d.metrics.ItemsCollected.WithLabelValues(typ).Add(float64(result.ItemsCollected))

	fields := []zap.Field{
		zap.String("source_id", src.ID),
		zap.String("url", src.URL),
		zap.String("status", string(result.Status)),
		zap.Int("items_collected", result.ItemsCollected),
		zap.Duration("duration", elapsed),
	}
	switch result.Status {
	case entity.CrawlStatusSuccess:
		d.logger.Info("Crawl finished", fields...)
	case entity.CrawlStatusNoData:
		d.logger.Warn("Crawl found no data", fields...)
	default:
		d.logger.Error("Crawl failed", append(fields, zap.Strings("errors", result.Errors))...)
	}

	if d.logRepo != nil {
		if _, err := d.logRepo.LogResult(ctx, result); err != nil {
			d.logger.Warn("Failed to append crawl log", zap.String("source_id", src.ID), zap.Error(err))
		}
	}
	if d.statusRepo != nil && src.ID != "" {
		if err := d.statusRepo.SaveLatest(ctx, result); err != nil {
			d.logger.Warn("Failed to cache crawl status", zap.String("source_id", src.ID), zap.Error(err))
		}
	}
}
