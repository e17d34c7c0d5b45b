package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/pkg/metrics"
)

type recordingCrawler struct {
	mu       sync.Mutex
	order    []string
	active   int32
	maxSeen  int32
	duration time.Duration
}

func (c *recordingCrawler) Crawl(_ context.Context, src entity.Source) entity.CrawlResult {
	n := atomic.AddInt32(&c.active, 1)
	for {
		seen := atomic.LoadInt32(&c.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&c.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(c.duration)
	atomic.AddInt32(&c.active, -1)

	c.mu.Lock()
	c.order = append(c.order, src.ID)
	c.mu.Unlock()
	return entity.CrawlResult{SourceID: src.ID, URL: src.URL, Status: entity.CrawlStatusSuccess}
}

type staticSources struct {
	sources []entity.Source
	err     error
}

func (s staticSources) List(_ context.Context, status string) ([]entity.Source, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []entity.Source
	for _, src := range s.sources {
		if status == "" || src.Status == status {
			out = append(out, src)
		}
	}
	return out, nil
}

func testSources() staticSources {
	return staticSources{sources: []entity.Source{
		{ID: "a", URL: "https://a.example.com", Status: entity.SourceStatusActive, Cadence: entity.Cadence{Frequency: "hourly"}},
		{ID: "b", URL: "https://b.example.com", Status: entity.SourceStatusInactive},
		{ID: "c", URL: "https://c.example.com", Status: entity.SourceStatusActive, Cadence: entity.Cadence{Frequency: "daily", TimeOfDay: "09:00"}},
	}}
}

func newTestScheduler(crawler Crawler, sources SourceLister, delay time.Duration) (*Scheduler, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return New(crawler, sources, delay, m, zap.NewNop()), m
}

func TestScheduleAllActiveSources(t *testing.T) {
	s, m := newTestScheduler(&recordingCrawler{}, testSources(), 0)

	n, err := s.ScheduleAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ScheduledSources))

	runs := s.NextRuns()
	assert.Len(t, runs, 2)
	assert.Contains(t, runs, "a")
	assert.Contains(t, runs, "c")
}

func TestScheduleAllListError(t *testing.T) {
	s, _ := newTestScheduler(&recordingCrawler{}, staticSources{err: errors.New("db down")}, 0)

	_, err := s.ScheduleAll(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestRescheduleReplacesEntry(t *testing.T) {
	s, m := newTestScheduler(&recordingCrawler{}, testSources(), 0)
	src := entity.Source{ID: "a", Cadence: entity.Cadence{Frequency: "hourly"}}

	require.NoError(t, s.Schedule(src))
	require.NoError(t, s.Schedule(src))
	assert.Len(t, s.NextRuns(), 1)
	assert.Len(t, s.cron.Entries(), 1)

	s.Unschedule("a")
	s.Unschedule("missing")
	assert.Empty(t, s.NextRuns())
	assert.Empty(t, s.cron.Entries())
	assert.Zero(t, testutil.ToFloat64(m.ScheduledSources))
}

func TestScheduleRequiresID(t *testing.T) {
	s, _ := newTestScheduler(&recordingCrawler{}, testSources(), 0)
	assert.Error(t, s.Schedule(entity.Source{}))
}

func TestNextRunsAfterStart(t *testing.T) {
	s, _ := newTestScheduler(&recordingCrawler{}, testSources(), 0)
	require.NoError(t, s.Schedule(entity.Source{ID: "a", Cadence: entity.Cadence{Frequency: "hourly"}}))

	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, s.Stop(ctx))
	}()

	require.Eventually(t, func() bool {
		return !s.NextRuns()["a"].IsZero()
	}, time.Second, 10*time.Millisecond)

	next := s.NextRuns()["a"]
	assert.WithinDuration(t, time.Now().Add(time.Hour), next, 2*time.Second)
}

func TestCrawlAllRunsActiveSourcesInOrder(t *testing.T) {
	crawler := &recordingCrawler{}
	s, _ := newTestScheduler(crawler, testSources(), 0)

	results, err := s.CrawlAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].SourceID)
	assert.Equal(t, "c", results[1].SourceID)
	assert.Equal(t, []string{"a", "c"}, crawler.order)
}

func TestCrawlsNeverOverlap(t *testing.T) {
	crawler := &recordingCrawler{duration: 5 * time.Millisecond}
	s, _ := newTestScheduler(crawler, testSources(), 0)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.crawl(context.Background(), entity.Source{ID: "a"})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&crawler.maxSeen))
	assert.Len(t, crawler.order, 5)
}

func TestPolitenessDelay(t *testing.T) {
	s, _ := newTestScheduler(&recordingCrawler{}, testSources(), 30*time.Millisecond)

	start := time.Now()
	_, err := s.CrawlAll(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestCrawlAllStopsOnCancel(t *testing.T) {
	s, _ := newTestScheduler(&recordingCrawler{}, testSources(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	results, err := s.CrawlAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 1)
}
