package extractor

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/repository"
)

// TextExtractor returns a plain-text body as a single item.
type TextExtractor struct {
	fetcher repository.PageFetcher
	logger  *zap.Logger
}

func NewTextExtractor(fetcher repository.PageFetcher, logger *zap.Logger) *TextExtractor {
	return &TextExtractor{fetcher: fetcher, logger: logger}
}

func (e *TextExtractor) Extract(ctx context.Context, src entity.Source) ([]entity.DataItem, error) {
	body, err := e.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	text := decodeText(body)
	if strings.TrimSpace(text) == "" {
		e.logger.Debug("empty text body", zap.String("url", src.URL))
		return nil, nil
	}

	item := newItem(src, entity.SourceTypeTXT)
	item.Title = src.DisplayName(defaultTextTitle)
	item.Content = text
	return []entity.DataItem{item}, nil
}

// decodeText returns body as UTF-8. Valid UTF-8 is kept byte for byte; anything
// else is decoded from the sniffed charset (BOM, then windows-1252).
func decodeText(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}
	enc, _, _ := charset.DetermineEncoding(body, "")
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return strings.ToValidUTF8(string(body), "\uFFFD")
	}
	return strings.ToValidUTF8(string(decoded), "\uFFFD")
}
