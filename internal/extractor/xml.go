package extractor

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/repository"
)

// recordElements are the element local names treated as records.
var recordElements = map[string]bool{
	"item":   true,
	"entry":  true,
	"record": true,
}

// XMLExtractor returns the text of record-like elements in a generic XML
// document. Every record becomes an item; MaxItems does not apply.
type XMLExtractor struct {
	fetcher repository.PageFetcher
	logger  *zap.Logger
}

func NewXMLExtractor(fetcher repository.PageFetcher, logger *zap.Logger) *XMLExtractor {
	return &XMLExtractor{fetcher: fetcher, logger: logger}
}

func (e *XMLExtractor) Extract(ctx context.Context, src entity.Source) ([]entity.DataItem, error) {
	body, err := e.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	records, whole, err := xmlRecords(body)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 && whole != "" {
		records = []string{whole}
	}

	items := make([]entity.DataItem, 0, len(records))
	for _, text := range records {
		item := newItem(src, entity.SourceTypeXML)
		item.Content = text
		items = append(items, item)
	}

	e.logger.Debug("extracted xml records", zap.String("url", src.URL), zap.Int("items", len(items)))
	return items, nil
}

type openRecord struct {
	depth int
	parts []string
}

// xmlRecords walks the token stream and collects the trimmed character data of
// each record element in document order, plus the text of the whole document.
// Nested records each produce their own entry and also contribute to their ancestors.
func xmlRecords(body []byte) (records []string, whole string, err error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, "", nil
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = true

	// Records are emitted in start-tag order, so reserve a slot on open.
	var (
		out   []string
		all   []string
		open  []openRecord
		slots []int
		depth int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if recordElements[t.Name.Local] {
				open = append(open, openRecord{depth: depth})
				slots = append(slots, len(out))
				out = append(out, "")
			}
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			all = append(all, text)
			for i := range open {
				open[i].parts = append(open[i].parts, text)
			}
		case xml.EndElement:
			if n := len(open); n > 0 && open[n-1].depth == depth {
				out[slots[n-1]] = strings.Join(open[n-1].parts, " ")
				open = open[:n-1]
				slots = slots[:n-1]
			}
			depth--
		}
	}

	return out, strings.Join(all, " "), nil
}
