package entity

import "time"

// CrawlStatusValue classifies the outcome of one crawl.
type CrawlStatusValue string

const (
	CrawlStatusSuccess CrawlStatusValue = "success"
	CrawlStatusNoData  CrawlStatusValue = "no_data"
	CrawlStatusError   CrawlStatusValue = "error"
)

// CrawlResult mirrors the `crawl_logs` PostgreSQL table schema.
// Exactly one is produced per dispatch.
type CrawlResult struct {
	ID             string           `json:"_id,omitempty"`
	SourceID       string           `json:"source_id"`
	URL            string           `json:"url"`
	Status         CrawlStatusValue `json:"status"`
	ItemsCollected int              `json:"items_collected"`
	Errors         []string         `json:"errors"`
	LoggedAt       time.Time        `json:"timestamp,omitempty"` // assigned by the store
}

// Fail marks the result as an error, dropping any collected count.
func (r *CrawlResult) Fail(msg string) {
	r.Status = CrawlStatusError
	r.ItemsCollected = 0
	r.Errors = append(r.Errors, msg)
}

// Stats aggregates store-wide counters.
type Stats struct {
	TotalSources   int64         `json:"total_sources"`
	ActiveSources  int64         `json:"active_sources"`
	TotalDataItems int64         `json:"total_data_items"`
	DataBySource   []SourceCount `json:"data_by_source"`
}

// SourceCount is the number of items stored for one source.
type SourceCount struct {
	SourceID string `json:"_id"`
	Count    int64  `json:"count"`
}
