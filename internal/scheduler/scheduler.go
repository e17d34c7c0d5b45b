// Package scheduler runs recurring crawls for stored sources.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/pkg/metrics"
)

// Crawler runs a single crawl.
type Crawler interface {
	Crawl(ctx context.Context, src entity.Source) entity.CrawlResult
}

// SourceLister returns stored sources filtered by status.
type SourceLister interface {
	List(ctx context.Context, status string) ([]entity.Source, error)
}

// Scheduler maps each active source to a cron entry. Crawls never overlap:
// each one holds the crawl lock and then waits out the politeness delay.
type Scheduler struct {
	cron    *cron.Cron
	crawler Crawler
	sources SourceLister
	delay   time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	crawlMu sync.Mutex

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a scheduler. delay is the pause after every crawl.
func New(crawler Crawler, sources SourceLister, delay time.Duration, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	cronLogger := cronLogger{logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.Recover(cronLogger))),
		crawler: crawler,
		sources: sources,
		delay:   delay,
		metrics: m,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
	}
}

// Start runs the cron loop in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("sources", s.count()))
}

// Stop halts new runs and waits for a running crawl to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Schedule registers src, replacing any earlier entry for the same source.
func (s *Scheduler) Schedule(src entity.Source) error {
	if src.ID == "" {
		return errors.New("source has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[src.ID]; ok {
		s.cron.Remove(old)
	}

	id := s.cron.Schedule(ScheduleFor(src.Cadence), cron.FuncJob(func() {
		s.crawl(s.ctx, src)
	}))
	s.entries[src.ID] = id
	s.metrics.ScheduledSources.Set(float64(len(s.entries)))

	s.logger.Info("Scheduled source",
		zap.String("source_id", src.ID),
		zap.String("name", src.Name),
		zap.String("frequency", src.Frequency),
		zap.String("schedule_time", src.TimeOfDay),
		zap.Int("interval_minutes", src.IntervalMinutes))
	return nil
}

// Unschedule removes the entry for sourceID, if any.
func (s *Scheduler) Unschedule(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[sourceID]; ok {
		s.cron.Remove(id)
		delete(s.entries, sourceID)
		s.metrics.ScheduledSources.Set(float64(len(s.entries)))
		s.logger.Info("Unscheduled source", zap.String("source_id", sourceID))
	}
}

// ScheduleAll schedules every active source and returns how many were scheduled.
func (s *Scheduler) ScheduleAll(ctx context.Context) (int, error) {
	sources, err := s.sources.List(ctx, entity.SourceStatusActive)
	if err != nil {
		return 0, fmt.Errorf("list active sources: %w", err)
	}

	scheduled := 0
	for _, src := range sources {
		if err := s.Schedule(src); err != nil {
			s.logger.Error("Failed to schedule source", zap.String("source_id", src.ID), zap.Error(err))
			continue
		}
		scheduled++
	}
	s.logger.Info("Scheduled active sources", zap.Int("count", scheduled))
	return scheduled, nil
}

// NextRuns returns the next run time per source. The time is zero until the
// scheduler has been started.
func (s *Scheduler) NextRuns() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make(map[string]time.Time, len(s.entries))
	for sourceID, id := range s.entries {
		runs[sourceID] = s.cron.Entry(id).Next
	}
	return runs
}

// CrawlAll crawls every active source one after another.
func (s *Scheduler) CrawlAll(ctx context.Context) ([]entity.CrawlResult, error) {
	sources, err := s.sources.List(ctx, entity.SourceStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}

	results := make([]entity.CrawlResult, 0, len(sources))
	for _, src := range sources {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		results = append(results, s.crawl(ctx, src))
	}
	return results, nil
}

// crawl runs one crawl under the crawl lock, followed by the politeness delay.
func (s *Scheduler) crawl(ctx context.Context, src entity.Source) entity.CrawlResult {
	s.crawlMu.Lock()
	defer s.crawlMu.Unlock()

	s.logger.Info("Running scheduled crawl", zap.String("source_id", src.ID), zap.String("name", src.Name))
	result := s.crawler.Crawl(ctx, src)

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	return result
}

func (s *Scheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
