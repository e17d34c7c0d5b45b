package entity

import "time"

// SourceType is the declared content kind of a crawl target.
type SourceType string

const (
	SourceTypeHTML    SourceType = "html"
	SourceTypeRSS     SourceType = "rss"
	SourceTypePDF     SourceType = "pdf"
	SourceTypeXML     SourceType = "xml"
	SourceTypeTXT     SourceType = "txt"
	SourceTypeDynamic SourceType = "dynamic"
)

// SourceTypes lists every supported kind in a stable order.
var SourceTypes = []SourceType{
	SourceTypeHTML,
	SourceTypeRSS,
	SourceTypePDF,
	SourceTypeXML,
	SourceTypeTXT,
	SourceTypeDynamic,
}

// Valid reports whether t is one of the supported kinds.
func (t SourceType) Valid() bool {
	for _, known := range SourceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// SingleItem reports whether the kind conceptually produces one document per crawl.
func (t SourceType) SingleItem() bool {
	return t == SourceTypePDF || t == SourceTypeTXT
}

const (
	SourceStatusActive   = "active"
	SourceStatusInactive = "inactive"

	DefaultMaxItems    = 50
	DefaultWaitSeconds = 5
)

// Cadence describes how often a source should be crawled.
type Cadence struct {
	Frequency       string `json:"frequency"`                  // "hourly", "daily", "weekly", "monthly", "3d", or minutes
	TimeOfDay       string `json:"schedule_time,omitempty"`    // "HH:MM", used by "daily"
	IntervalMinutes int    `json:"interval_minutes,omitempty"` // overrides Frequency when > 0
}

// Source mirrors the `sources` PostgreSQL table schema.
type Source struct {
	ID          string      `json:"_id"`
	Name        string      `json:"name"`
	URL         string      `json:"url"`
	Type        SourceType  `json:"type"`
	Selectors   SelectorMap `json:"selectors,omitempty"`
	MaxItems    int         `json:"max_items"`
	WaitSeconds int         `json:"wait_time,omitempty"` // dynamic sources only
	Cadence
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemLimit returns MaxItems, or the default when it is unset.
func (s Source) ItemLimit() int {
	if s.MaxItems <= 0 {
		return DefaultMaxItems
	}
	return s.MaxItems
}

// RenderWait returns how long a dynamic page is given to render.
func (s Source) RenderWait() time.Duration {
	if s.WaitSeconds <= 0 {
		return DefaultWaitSeconds * time.Second
	}
	return time.Duration(s.WaitSeconds) * time.Second
}

// DisplayName returns the source name, or fallback when the name is empty.
func (s Source) DisplayName(fallback string) string {
	if s.Name == "" {
		return fallback
	}
	return s.Name
}
