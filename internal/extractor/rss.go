package extractor

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/repository"
	"github.com/user/source-crawler/pkg/utils"
)

// RSSExtractor reads RSS and Atom feeds.
type RSSExtractor struct {
	fetcher repository.PageFetcher
	logger  *zap.Logger
}

func NewRSSExtractor(fetcher repository.PageFetcher, logger *zap.Logger) *RSSExtractor {
	return &RSSExtractor{fetcher: fetcher, logger: logger}
}

// Extract returns up to MaxItems entries in feed order. A body that cannot be
// parsed as a feed yields no items rather than an error.
func (e *RSSExtractor) Extract(ctx context.Context, src entity.Source) ([]entity.DataItem, error) {
	body, err := e.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		e.logger.Warn("feed could not be parsed", zap.String("url", src.URL), zap.Error(err))
		return nil, nil
	}

	limit := src.ItemLimit()
	entries := feed.Items
	if len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]entity.DataItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, feedItem(src, entry))
	}

	e.logger.Debug("extracted feed entries",
		zap.String("url", src.URL),
		zap.Int("available", len(feed.Items)),
		zap.Int("collected", len(items)))
	return items, nil
}

func feedItem(src entity.Source, entry *gofeed.Item) entity.DataItem {
	item := newItem(src, entity.SourceTypeRSS)
	item.Title = entry.Title
	item.Content = entry.Description
	if item.Content == "" {
		item.Content = entry.Content
	}
	item.Link = entry.Link
	item.Published = entry.Published

	base := entry.Link
	if base == "" {
		base = src.URL
	}

	for _, media := range mediaContents(entry.Extensions) {
		if isImageType(media.Attrs["type"]) && media.Attrs["url"] != "" {
			item.Images = append(item.Images, entity.ImageInfo{URL: utils.ResolveURL(media.Attrs["url"], base), Alt: entry.Title})
		}
	}

	for _, enc := range entry.Enclosures {
		if enc != nil && isImageType(enc.Type) && enc.URL != "" {
			item.Images = append(item.Images, entity.ImageInfo{URL: utils.ResolveURL(enc.URL, base), Alt: entry.Title})
		}
	}

	html := entry.Content
	if html == "" {
		html = entry.Description
	}
	// each source is appended as found, so a URL may repeat across them
	item.Images = append(item.Images, embeddedImages(html, base, entry.Title)...)

	return item
}

// mediaContents collects media:content elements, including those grouped
// under media:group.
func mediaContents(exts ext.Extensions) []ext.Extension {
	media, ok := exts["media"]
	if !ok {
		return nil
	}
	out := append([]ext.Extension{}, media["content"]...)
	for _, group := range media["group"] {
		out = append(out, group.Children["content"]...)
	}
	return out
}

func isImageType(mime string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "image")
}

func embeddedImages(html, base, title string) []entity.ImageInfo {
	if strings.TrimSpace(html) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var images []entity.ImageInfo
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			return
		}
		images = append(images, entity.ImageInfo{
			URL: utils.ResolveURL(src, base),
			Alt: img.AttrOr("alt", title),
		})
	})
	return images
}
