package extractor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/repository"
)

// HTMLExtractor scrapes static pages with optional container/field selectors.
type HTMLExtractor struct {
	fetcher repository.PageFetcher
	logger  *zap.Logger
}

func NewHTMLExtractor(fetcher repository.PageFetcher, logger *zap.Logger) *HTMLExtractor {
	return &HTMLExtractor{fetcher: fetcher, logger: logger}
}

func (e *HTMLExtractor) Extract(ctx context.Context, src entity.Source) ([]entity.DataItem, error) {
	if err := validateSelectors(src.Selectors); err != nil {
		return nil, err
	}

	body, err := e.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	rule, ok := src.Selectors.Container()
	if !ok {
		return []entity.DataItem{pageItem(doc, src, entity.SourceTypeHTML)}, nil
	}

	items := containerItems(doc, src, entity.SourceTypeHTML, rule, true)
	if len(items) == 0 {
		e.logger.Warn("no elements matched container selector",
			zap.String("url", src.URL), zap.String("selector", rule))
	} else {
		e.logger.Debug("extracted html items",
			zap.String("url", src.URL), zap.Int("items", len(items)), zap.Int("max_items", src.ItemLimit()))
	}
	return items, nil
}
