package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/repository"
)

// DynamicExtractor scrapes pages that need client-side script execution.
// Only field extraction is performed; there is no page-wide image sweep and
// no whole-page fallback.
type DynamicExtractor struct {
	renderer repository.PageRenderer
	logger   *zap.Logger
}

func NewDynamicExtractor(renderer repository.PageRenderer, logger *zap.Logger) *DynamicExtractor {
	return &DynamicExtractor{renderer: renderer, logger: logger}
}

func (e *DynamicExtractor) Extract(ctx context.Context, src entity.Source) ([]entity.DataItem, error) {
	if err := validateSelectors(src.Selectors); err != nil {
		return nil, err
	}

	html, err := e.renderer.Render(ctx, src.URL, src.RenderWait())
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(html) == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered html: %w", err)
	}

	// without a container no field can match, and field-less items are dropped
	rule, ok := src.Selectors.Container()
	if !ok {
		e.logger.Debug("rendered page has no container selector", zap.String("url", src.URL))
		return nil, nil
	}

	items := containerItems(doc, src, entity.SourceTypeDynamic, rule, false)
	e.logger.Debug("extracted rendered items", zap.String("url", src.URL), zap.Int("items", len(items)))
	return items, nil
}
