package response

import "github.com/user/source-crawler/internal/entity"

// CrawlResponse is returned by the crawl endpoints.
type CrawlResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Result  entity.CrawlResult `json:"result"`
	Data    []entity.DataItem  `json:"data,omitempty"` // most recent items of the source
}

// CrawlAllResponse summarizes a sequential crawl of all active sources.
type CrawlAllResponse struct {
	Crawled int                  `json:"crawled"`
	Results []entity.CrawlResult `json:"results"`
}

type SourcesResponse struct {
	Count   int             `json:"count"`
	Sources []entity.Source `json:"sources"`
}

type SearchResponse struct {
	Count int               `json:"count"`
	Items []entity.DataItem `json:"items"`
}

type LogsResponse struct {
	Count int                  `json:"count"`
	Logs  []entity.CrawlResult `json:"logs"`
}

// SourceStatusResponse carries the cached outcomes of a source.
type SourceStatusResponse struct {
	SourceID string               `json:"source_id"`
	Latest   *entity.CrawlResult  `json:"latest"`
	History  []entity.CrawlResult `json:"history"`
}

// ScheduleResponse maps source IDs to their next run, or "Not scheduled".
type ScheduleResponse struct {
	Jobs map[string]string `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
