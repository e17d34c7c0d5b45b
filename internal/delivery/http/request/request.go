package request

import (
	"fmt"
	"time"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/usecase"
)

// SourceRequest is the body of source creation and ad-hoc crawl requests.
type SourceRequest struct {
	ID              string             `json:"_id"`
	Name            string             `json:"name"`
	URL             string             `json:"url"`
	Type            entity.SourceType  `json:"type"`
	Selectors       entity.SelectorMap `json:"selectors"`
	MaxItems        int                `json:"max_items"`
	WaitSeconds     int                `json:"wait_time"`
	Frequency       string             `json:"frequency"`
	ScheduleTime    string             `json:"schedule_time"`
	IntervalMinutes int                `json:"interval_minutes"`
	Status          string             `json:"status"`
	Description     string             `json:"description"`
	Category        string             `json:"category"`
}

// ToEntity converts the request into a source. A missing type means html.
func (r SourceRequest) ToEntity() entity.Source {
	typ := r.Type
	if typ == "" {
		typ = entity.SourceTypeHTML
	}
	return entity.Source{
		ID:          r.ID,
		Name:        r.Name,
		URL:         r.URL,
		Type:        typ,
		Selectors:   r.Selectors,
		MaxItems:    r.MaxItems,
		WaitSeconds: r.WaitSeconds,
		Cadence: entity.Cadence{
			Frequency:       r.Frequency,
			TimeOfDay:       r.ScheduleTime,
			IntervalMinutes: r.IntervalMinutes,
		},
		Status:      r.Status,
		Description: r.Description,
		Category:    r.Category,
	}
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Type        string `json:"type"` // keyword, source, recent or date_range
	Keyword     string `json:"keyword"`
	SourceID    string `json:"source_id"`
	StartDate   string `json:"start_date"` // RFC 3339 or YYYY-MM-DD
	EndDate     string `json:"end_date"`
	ContentType string `json:"content_type"`
	Limit       int    `json:"limit"`
}

// ToQuery converts the request into a search query. A date-only end date
// covers the whole day.
func (r SearchRequest) ToQuery() (usecase.SearchQuery, error) {
	q := usecase.SearchQuery{
		Type:        r.Type,
		Keyword:     r.Keyword,
		SourceID:    r.SourceID,
		ContentType: entity.SourceType(r.ContentType),
		Limit:       r.Limit,
	}
	if q.Type == "" {
		q.Type = usecase.SearchKeyword
	}

	var err error
	if r.StartDate != "" {
		if q.Start, _, err = parseDate(r.StartDate); err != nil {
			return q, fmt.Errorf("%w: start_date: %v", usecase.ErrInvalidSearch, err)
		}
	}
	if r.EndDate != "" {
		var dateOnly bool
		if q.End, dateOnly, err = parseDate(r.EndDate); err != nil {
			return q, fmt.Errorf("%w: end_date: %v", usecase.ErrInvalidSearch, err)
		}
		if dateOnly {
			q.End = q.End.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return q, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", s)
	}
	return t, true, nil
}
