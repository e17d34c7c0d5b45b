package request

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/usecase"
)

func TestSourceRequestToEntity(t *testing.T) {
	body := `{
		"name": "News",
		"url": "https://example.com",
		"selectors": {"container": ".post", "title": "h2", "body": "p"},
		"max_items": 5,
		"frequency": "daily",
		"schedule_time": "06:30"
	}`

	var req SourceRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	src := req.ToEntity()

	assert.Equal(t, entity.SourceTypeHTML, src.Type)
	assert.Equal(t, 5, src.MaxItems)
	assert.Equal(t, "06:30", src.TimeOfDay)
	require.Len(t, src.Selectors, 3)
	assert.Equal(t, "title", src.Selectors[1].Field)
	assert.Equal(t, "body", src.Selectors[2].Field)
}

func TestSearchRequestDates(t *testing.T) {
	q, err := SearchRequest{Type: "date_range", StartDate: "2024-01-01", EndDate: "2024-01-31"}.ToQuery()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), q.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC), q.End)

	q, err = SearchRequest{Type: "date_range", StartDate: "2024-01-01T10:00:00Z", EndDate: "2024-01-02T10:00:00Z"}.ToQuery()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), q.End)

	_, err = SearchRequest{Type: "date_range", StartDate: "yesterday"}.ToQuery()
	assert.ErrorIs(t, err, usecase.ErrInvalidSearch)
}

func TestSearchRequestDefaultsToKeyword(t *testing.T) {
	q, err := SearchRequest{Keyword: "go", ContentType: "rss"}.ToQuery()
	require.NoError(t, err)
	assert.Equal(t, usecase.SearchKeyword, q.Type)
	assert.Equal(t, entity.SourceTypeRSS, q.ContentType)
}
