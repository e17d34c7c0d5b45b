package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/repository"
	"github.com/user/source-crawler/pkg/utils"
)

var (
	ErrInvalidSource = errors.New("invalid source")
	ErrInvalidSearch = errors.New("invalid search")
)

const (
	// AdHocSourceID identifies crawls of sources that are not stored.
	AdHocSourceID = "temp_crawl"
	// AdHocMaxItems is the item limit of an ad-hoc crawl that sets none.
	AdHocMaxItems = 20

	previewItems     = 3
	defaultLogLimit  = 50
	maxLogLimit      = 500
	defaultFrequency = "daily"
	defaultTimeOfDay = "00:00"
)

// Search types accepted by Search.
const (
	SearchKeyword   = "keyword"
	SearchSource    = "source"
	SearchRecent    = "recent"
	SearchDateRange = "date_range"
)

// SearchQuery selects stored items.
type SearchQuery struct {
	Type        string
	Keyword     string
	SourceID    string
	Start       time.Time
	End         time.Time
	ContentType entity.SourceType // optional filter on the item type
	Limit       int
}

// SourceScheduler keeps recurring crawls in line with stored sources.
type SourceScheduler interface {
	Schedule(src entity.Source) error
	Unschedule(sourceID string)
}

// SourceManager defines the operations behind the HTTP API.
type SourceManager interface {
	CreateSource(ctx context.Context, src entity.Source) (*entity.Source, error)
	ListSources(ctx context.Context, status string) ([]entity.Source, error)
	GetSource(ctx context.Context, id string) (*entity.Source, error)
	DeleteSource(ctx context.Context, id string) error
	CrawlSource(ctx context.Context, id string) (entity.CrawlResult, error)
	CrawlNow(ctx context.Context, src entity.Source) (entity.CrawlResult, []entity.DataItem)
	LatestStatus(ctx context.Context, id string) (*entity.CrawlResult, error)
	StatusHistory(ctx context.Context, id string, limit int) ([]entity.CrawlResult, error)
	Search(ctx context.Context, q SearchQuery) ([]entity.DataItem, error)
	Logs(ctx context.Context, limit int) ([]entity.CrawlResult, error)
	Stats(ctx context.Context) (*entity.Stats, error)
}

type sourceUseCase struct {
	sourceRepo repository.SourceRepository
	itemRepo   repository.ItemQueryRepository
	logRepo    repository.CrawlLogRepository
	statusRepo repository.StatusRepository
	crawler    Crawler
	scheduler  SourceScheduler
	logger     *zap.Logger
}

// NewSourceManager creates a new SourceManager use case. scheduler may be nil
// when recurring crawls are disabled.
func NewSourceManager(
	sourceRepo repository.SourceRepository,
	itemRepo repository.ItemQueryRepository,
	logRepo repository.CrawlLogRepository,
	statusRepo repository.StatusRepository,
	crawler Crawler,
	scheduler SourceScheduler,
	logger *zap.Logger,
) SourceManager {
	return &sourceUseCase{
		sourceRepo: sourceRepo,
		itemRepo:   itemRepo,
		logRepo:    logRepo,
		statusRepo: statusRepo,
		crawler:    crawler,
		scheduler:  scheduler,
		logger:     logger,
	}
}

// ValidateSource checks the fields a crawl depends on.
func ValidateSource(src entity.Source) error {
	if !utils.IsNetworkURL(src.URL) {
		return fmt.Errorf("%w: url must be an http or https address", ErrInvalidSource)
	}
	if !src.Type.Valid() {
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidSource, src.Type)
	}
	return nil
}

func (uc *sourceUseCase) CreateSource(ctx context.Context, src entity.Source) (*entity.Source, error) {
	if strings.TrimSpace(src.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSource)
	}
	if err := ValidateSource(src); err != nil {
		return nil, err
	}

	applySourceDefaults(&src)

	id, err := uc.sourceRepo.Create(ctx, &src)
	if err != nil {
		return nil, err
	}
	src.ID = id

	if uc.scheduler != nil && src.Status == entity.SourceStatusActive {
		if err := uc.scheduler.Schedule(src); err != nil {
			uc.logger.Warn("Failed to schedule new source", zap.String("source_id", id), zap.Error(err))
		}
	}
	return &src, nil
}

func applySourceDefaults(src *entity.Source) {
	if src.Status == "" {
		src.Status = entity.SourceStatusActive
	}
	if src.MaxItems <= 0 {
		src.MaxItems = entity.DefaultMaxItems
	}
	if src.Frequency == "" && src.IntervalMinutes <= 0 {
		src.Frequency = defaultFrequency
	}
	if src.TimeOfDay == "" {
		src.TimeOfDay = defaultTimeOfDay
	}
	if src.Type == entity.SourceTypeDynamic && src.WaitSeconds <= 0 {
		src.WaitSeconds = entity.DefaultWaitSeconds
	}
}

func (uc *sourceUseCase) ListSources(ctx context.Context, status string) ([]entity.Source, error) {
	return uc.sourceRepo.List(ctx, status)
}

func (uc *sourceUseCase) GetSource(ctx context.Context, id string) (*entity.Source, error) {
	return uc.sourceRepo.Get(ctx, id)
}

func (uc *sourceUseCase) DeleteSource(ctx context.Context, id string) error {
	deleted, err := uc.sourceRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return repository.ErrSourceNotFound
	}
	if uc.scheduler != nil {
		uc.scheduler.Unschedule(id)
	}
	return nil
}

func (uc *sourceUseCase) CrawlSource(ctx context.Context, id string) (entity.CrawlResult, error) {
	src, err := uc.sourceRepo.Get(ctx, id)
	if err != nil {
		return entity.CrawlResult{}, err
	}
	return uc.crawler.Crawl(ctx, *src), nil
}

// CrawlNow crawls a source that need not be stored. On success it also returns
// the most recent items stored for the source.
func (uc *sourceUseCase) CrawlNow(ctx context.Context, src entity.Source) (entity.CrawlResult, []entity.DataItem) {
	if src.ID == "" {
		src.ID = AdHocSourceID
	}
	if src.MaxItems <= 0 {
		src.MaxItems = AdHocMaxItems
	}

	result := uc.crawler.Crawl(ctx, src)
	if result.Status != entity.CrawlStatusSuccess {
		return result, nil
	}

	items, err := uc.itemRepo.FindBySource(ctx, src.ID, previewItems)
	if err != nil {
		uc.logger.Warn("Failed to load crawled items", zap.String("source_id", src.ID), zap.Error(err))
		return result, nil
	}
	return result, items
}

func (uc *sourceUseCase) LatestStatus(ctx context.Context, id string) (*entity.CrawlResult, error) {
	if uc.statusRepo == nil {
		return nil, repository.ErrStoreUnavailable
	}
	return uc.statusRepo.Latest(ctx, id)
}

func (uc *sourceUseCase) StatusHistory(ctx context.Context, id string, limit int) ([]entity.CrawlResult, error) {
	if uc.statusRepo == nil {
		return nil, repository.ErrStoreUnavailable
	}
	return uc.statusRepo.History(ctx, id, limit)
}

func (uc *sourceUseCase) Search(ctx context.Context, q SearchQuery) ([]entity.DataItem, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = entity.DefaultMaxItems
	}

	var (
		items []entity.DataItem
		err   error
	)
	switch q.Type {
	case SearchKeyword:
		if strings.TrimSpace(q.Keyword) == "" {
			return nil, fmt.Errorf("%w: keyword is required", ErrInvalidSearch)
		}
		items, err = uc.itemRepo.SearchByKeyword(ctx, q.Keyword, limit)
	case SearchSource:
		if q.SourceID == "" {
			return nil, fmt.Errorf("%w: source_id is required", ErrInvalidSearch)
		}
		items, err = uc.itemRepo.FindBySource(ctx, q.SourceID, limit)
	case SearchRecent:
		items, err = uc.itemRepo.FindRecent(ctx, limit)
	case SearchDateRange:
		if q.Start.IsZero() || q.End.IsZero() || q.End.Before(q.Start) {
			return nil, fmt.Errorf("%w: a valid start_date and end_date are required", ErrInvalidSearch)
		}
		items, err = uc.itemRepo.FindByDateRange(ctx, q.Start, q.End)
	default:
		return nil, fmt.Errorf("%w: unknown search type %q", ErrInvalidSearch, q.Type)
	}
	if err != nil {
		return nil, err
	}

	if q.ContentType == "" {
		return items, nil
	}
	filtered := make([]entity.DataItem, 0, len(items))
	for _, item := range items {
		if item.Type == q.ContentType {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func (uc *sourceUseCase) Logs(ctx context.Context, limit int) ([]entity.CrawlResult, error) {
	switch {
	case limit <= 0:
		limit = defaultLogLimit
	case limit > maxLogLimit:
		limit = maxLogLimit
	}
	return uc.logRepo.Recent(ctx, limit)
}

func (uc *sourceUseCase) Stats(ctx context.Context) (*entity.Stats, error) {
	return uc.itemRepo.Stats(ctx)
}
