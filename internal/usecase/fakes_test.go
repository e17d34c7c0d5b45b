package usecase

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/extractor"
	"github.com/user/source-crawler/internal/repository"
)

type fakeExtractor struct {
	items []entity.DataItem
	err   error
	panic bool
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ entity.Source) ([]entity.DataItem, error) {
	f.calls++
	if f.panic {
		panic("boom")
	}
	return f.items, f.err
}

// singleExtractor serves every type with the same extractor.
type singleExtractor struct{ ex *fakeExtractor }

func (s singleExtractor) For(t entity.SourceType) (extractor.Extractor, error) {
	if !t.Valid() {
		return nil, extractor.UnsupportedTypeError(t)
	}
	return s.ex, nil
}

type fakeItemRepo struct {
	mu          sync.Mutex
	err         error
	single      []entity.DataItem
	bulk        [][]entity.DataItem
	stored      []entity.DataItem
	recentLimit int
	queries     []string
}

func (r *fakeItemRepo) StoreItem(_ context.Context, item entity.DataItem) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.single = append(r.single, item)
	r.stored = append(r.stored, item)
	return strconv.Itoa(len(r.stored)), nil
}

func (r *fakeItemRepo) StoreItems(_ context.Context, items []entity.DataItem) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.bulk = append(r.bulk, items)
	ids := make([]string, 0, len(items))
	for _, item := range items {
		r.stored = append(r.stored, item)
		ids = append(ids, strconv.Itoa(len(r.stored)))
	}
	return ids, nil
}

func (r *fakeItemRepo) SearchByKeyword(_ context.Context, keyword string, limit int) ([]entity.DataItem, error) {
	r.queries = append(r.queries, "keyword:"+keyword)
	return r.limit(r.stored, limit), r.err
}

func (r *fakeItemRepo) FindBySource(_ context.Context, sourceID string, limit int) ([]entity.DataItem, error) {
	r.queries = append(r.queries, "source:"+sourceID)
	var out []entity.DataItem
	for i := len(r.stored) - 1; i >= 0; i-- {
		if r.stored[i].SourceID == sourceID {
			out = append(out, r.stored[i])
		}
	}
	return r.limit(out, limit), r.err
}

func (r *fakeItemRepo) FindRecent(_ context.Context, limit int) ([]entity.DataItem, error) {
	r.queries = append(r.queries, "recent")
	r.recentLimit = limit
	return r.limit(r.stored, limit), r.err
}

func (r *fakeItemRepo) FindByDateRange(_ context.Context, start, end time.Time) ([]entity.DataItem, error) {
	r.queries = append(r.queries, "range:"+start.Format(time.DateOnly)+".."+end.Format(time.DateOnly))
	return r.stored, r.err
}

func (r *fakeItemRepo) Stats(_ context.Context) (*entity.Stats, error) {
	return &entity.Stats{TotalDataItems: int64(len(r.stored))}, r.err
}

func (r *fakeItemRepo) limit(items []entity.DataItem, n int) []entity.DataItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}

type fakeLogRepo struct {
	err     error
	results []entity.CrawlResult
	limit   int
}

func (r *fakeLogRepo) LogResult(_ context.Context, result entity.CrawlResult) (string, error) {
	r.results = append(r.results, result)
	if r.err != nil {
		return "", r.err
	}
	return strconv.Itoa(len(r.results)), nil
}

func (r *fakeLogRepo) Recent(_ context.Context, limit int) ([]entity.CrawlResult, error) {
	r.limit = limit
	return r.results, r.err
}

type fakeStatusRepo struct {
	latest  map[string]entity.CrawlResult
	history map[string][]entity.CrawlResult
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{
		latest:  map[string]entity.CrawlResult{},
		history: map[string][]entity.CrawlResult{},
	}
}

func (r *fakeStatusRepo) SaveLatest(_ context.Context, result entity.CrawlResult) error {
	r.latest[result.SourceID] = result
	r.history[result.SourceID] = append([]entity.CrawlResult{result}, r.history[result.SourceID]...)
	return nil
}

func (r *fakeStatusRepo) History(_ context.Context, sourceID string, limit int) ([]entity.CrawlResult, error) {
	h := r.history[sourceID]
	if len(h) > limit {
		h = h[:limit]
	}
	return h, nil
}

func (r *fakeStatusRepo) Latest(_ context.Context, sourceID string) (*entity.CrawlResult, error) {
	result, ok := r.latest[sourceID]
	if !ok {
		return nil, repository.ErrSourceNotFound
	}
	return &result, nil
}

type fakeSourceRepo struct {
	sources map[string]entity.Source
	nextID  int
}

func newFakeSourceRepo(sources ...entity.Source) *fakeSourceRepo {
	r := &fakeSourceRepo{sources: map[string]entity.Source{}}
	for _, s := range sources {
		r.sources[s.ID] = s
	}
	return r
}

func (r *fakeSourceRepo) Create(_ context.Context, src *entity.Source) (string, error) {
	for _, existing := range r.sources {
		if existing.URL == src.URL {
			return "", repository.ErrSourceExists
		}
	}
	r.nextID++
	id := "src-" + strconv.Itoa(r.nextID)
	stored := *src
	stored.ID = id
	r.sources[id] = stored
	return id, nil
}

func (r *fakeSourceRepo) Get(_ context.Context, id string) (*entity.Source, error) {
	src, ok := r.sources[id]
	if !ok {
		return nil, repository.ErrSourceNotFound
	}
	return &src, nil
}

func (r *fakeSourceRepo) List(_ context.Context, status string) ([]entity.Source, error) {
	var out []entity.Source
	for _, s := range r.sources {
		if status == "" || s.Status == status {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSourceRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.sources[id]; !ok {
		return false, nil
	}
	delete(r.sources, id)
	return true, nil
}

type fakeScheduler struct {
	scheduled   []string
	unscheduled []string
	err         error
}

func (s *fakeScheduler) Schedule(src entity.Source) error {
	s.scheduled = append(s.scheduled, src.ID)
	return s.err
}

func (s *fakeScheduler) Unschedule(id string) {
	s.unscheduled = append(s.unscheduled, id)
}

var errDiskFull = errors.New("disk full")
