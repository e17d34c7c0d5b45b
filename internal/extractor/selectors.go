package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/pkg/utils"
)

const imageTitleFallback = "Image"

// validateSelectors compiles every non-empty rule so a malformed selector
// fails the crawl instead of silently matching nothing. Empty rules are ignored.
func validateSelectors(selectors entity.SelectorMap) error {
	for _, s := range selectors {
		if strings.TrimSpace(s.Rule) == "" {
			continue
		}
		if _, err := cascadia.Compile(s.Rule); err != nil {
			return fmt.Errorf("invalid selector %q for field %q: %w", s.Rule, s.Field, err)
		}
	}
	return nil
}

// containers selects the repeating elements and truncates them to limit.
func containers(doc *goquery.Document, rule string, limit int) *goquery.Selection {
	sel := doc.Find(rule)
	if sel.Length() > limit {
		sel = sel.Slice(0, limit)
	}
	return sel
}

// extractFields applies every field selector to the container, first match wins.
// Image elements record their resolved URL and use alt-or-URL as the value.
func extractFields(container *goquery.Selection, fields []entity.Selector, pageURL string, item *entity.DataItem) {
	for _, f := range fields {
		if strings.TrimSpace(f.Rule) == "" {
			continue
		}
		elem := container.Find(f.Rule).First()
		if elem.Length() == 0 {
			continue
		}

		var value string
		if goquery.NodeName(elem) == "img" {
			src := strings.TrimSpace(elem.AttrOr("src", ""))
			alt := elem.AttrOr("alt", "")
			if src != "" {
				src = utils.ResolveURL(src, pageURL)
				addImage(item, src, alt)
			}
			value = alt
			if value == "" {
				value = src
			}
			if f.Field == "title" {
				item.Title = alt
				if item.Title == "" {
					item.Title = imageTitleFallback
				}
			}
		} else {
			value = normalizeText(elem.Text())
			if f.Field == "title" {
				item.Title = value
			}
		}

		item.Fields = append(item.Fields, entity.FieldValue{Name: f.Field, Value: value})
	}
}

// sweepImages adds every image in sel that is not yet recorded, up to limit
// images in total when limit > 0.
func sweepImages(sel *goquery.Selection, pageURL string, item *entity.DataItem, limit int) {
	sel.Find("img").EachWithBreak(func(i int, img *goquery.Selection) bool {
		if limit > 0 && i >= limit {
			return false
		}
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			return true
		}
		addImage(item, utils.ResolveURL(src, pageURL), img.AttrOr("alt", ""))
		return true
	})
}

func addImage(item *entity.DataItem, url, alt string) {
	if item.HasImage(url) {
		return
	}
	item.Images = append(item.Images, entity.ImageInfo{URL: url, Alt: alt})
}

// fieldContent joins the field values, falling back to the container text.
func fieldContent(container *goquery.Selection, item *entity.DataItem) string {
	if len(item.Fields) == 0 {
		return truncate(normalizeText(container.Text()), containerContentLimit)
	}
	return truncate(strings.Join(item.Fields.Values(), " "), containerContentLimit)
}

// containerItems runs the container/field logic shared by static and rendered pages.
func containerItems(doc *goquery.Document, src entity.Source, typ entity.SourceType, rule string, withImageSweep bool) []entity.DataItem {
	fields := src.Selectors.Fields()
	var items []entity.DataItem

	containers(doc, rule, src.ItemLimit()).Each(func(_ int, container *goquery.Selection) {
		item := newItem(src, typ)
		extractFields(container, fields, src.URL, &item)
		if withImageSweep {
			sweepImages(container, src.URL, &item, 0)
		}
		item.Content = fieldContent(container, &item)

		if withImageSweep {
			if item.Empty() {
				return
			}
		} else if len(item.Fields) == 0 {
			return
		}
		items = append(items, item)
	})

	return items
}

// pageItem treats the whole document as a single item.
func pageItem(doc *goquery.Document, src entity.Source, typ entity.SourceType) entity.DataItem {
	item := newItem(src, typ)

	item.Title = normalizeText(doc.Find("title").First().Text())
	if item.Title == "" {
		item.Title = src.URL
	}

	sweepImages(doc.Selection, src.URL, &item, pageImageLimit)

	doc.Find("script, style, noscript").Remove()
	item.Content = truncate(normalizeText(doc.Text()), pageContentLimit)
	return item
}
