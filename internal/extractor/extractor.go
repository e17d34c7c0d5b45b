// Package extractor turns fetched payloads into normalized data items, one
// implementation per supported source type.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/repository"
)

// ErrUnsupportedType is returned when no extractor handles a source type.
var ErrUnsupportedType = errors.New("unsupported source type")

// Extractor fetches a source and returns the items found in it. An empty,
// error-free result means the source was reachable but yielded nothing.
type Extractor interface {
	Extract(ctx context.Context, src entity.Source) ([]entity.DataItem, error)
}

// UnsupportedTypeError wraps ErrUnsupportedType with the offending type.
func UnsupportedTypeError(t entity.SourceType) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

const (
	containerContentLimit = 500
	pageContentLimit      = 1000
	pageImageLimit        = 20

	defaultPDFTitle  = "PDF Document"
	defaultTextTitle = "Text Document"
)

// truncate caps s at n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// normalizeText collapses runs of whitespace and trims the result.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func newItem(src entity.Source, typ entity.SourceType) entity.DataItem {
	return entity.DataItem{
		SourceID:  src.ID,
		SourceURL: src.URL,
		Type:      typ,
	}
}

// Registry holds one extractor per source type.
type Registry struct {
	HTML    Extractor
	RSS     Extractor
	PDF     Extractor
	XML     Extractor
	Text    Extractor
	Dynamic Extractor
}

// NewRegistry wires the default extractors. Every type except dynamic reads
// through fetcher; dynamic pages go through renderer.
func NewRegistry(fetcher repository.PageFetcher, renderer repository.PageRenderer, logger *zap.Logger) *Registry {
	return &Registry{
		HTML:    NewHTMLExtractor(fetcher, logger),
		RSS:     NewRSSExtractor(fetcher, logger),
		PDF:     NewPDFExtractor(fetcher, logger),
		XML:     NewXMLExtractor(fetcher, logger),
		Text:    NewTextExtractor(fetcher, logger),
		Dynamic: NewDynamicExtractor(renderer, logger),
	}
}

// For returns the extractor for t.
func (r *Registry) For(t entity.SourceType) (Extractor, error) {
	var ex Extractor
	switch t {
	case entity.SourceTypeHTML:
		ex = r.HTML
	case entity.SourceTypeRSS:
		ex = r.RSS
	case entity.SourceTypePDF:
		ex = r.PDF
	case entity.SourceTypeXML:
		ex = r.XML
	case entity.SourceTypeTXT:
		ex = r.Text
	case entity.SourceTypeDynamic:
		ex = r.Dynamic
	}
	if ex == nil {
		return nil, UnsupportedTypeError(t)
	}
	return ex, nil
}
