package extractor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/repository"
)

// PDFExtractor downloads a document and returns its text as a single item.
type PDFExtractor struct {
	fetcher repository.PageFetcher
	logger  *zap.Logger
}

func NewPDFExtractor(fetcher repository.PageFetcher, logger *zap.Logger) *PDFExtractor {
	return &PDFExtractor{fetcher: fetcher, logger: logger}
}

func (e *PDFExtractor) Extract(ctx context.Context, src entity.Source) ([]entity.DataItem, error) {
	body, err := e.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	text, pages, err := e.readText(body)
	if err != nil {
		return nil, err
	}

	item := newItem(src, entity.SourceTypePDF)
	item.Title = src.DisplayName(defaultPDFTitle)
	item.Content = text
	item.Pages = pages
	return []entity.DataItem{item}, nil
}

// readText concatenates the plain text of every page. Pages whose text
// cannot be decoded are skipped.
func (e *PDFExtractor) readText(body []byte) (text string, pages int, err error) {
	// the pdf reader panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", 0, fmt.Errorf("read pdf: %w", err)
	}

	var buf bytes.Buffer
	pages = reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, perr := page.GetPlainText(nil)
		if perr != nil {
			e.logger.Debug("skipping unreadable pdf page", zap.Int("page", i), zap.Error(perr))
			continue
		}
		buf.WriteString(content)
	}
	return buf.String(), pages, nil
}
