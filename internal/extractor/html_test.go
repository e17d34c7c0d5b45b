package extractor

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/entity"
)

const newsURL = "https://news.example.com/section/latest"

func articles(n int) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Latest</title></head><body>")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<div class="article"><h2>Story %d</h2><a href="/s/%d">read</a><img src="/img/%d.jpg" alt="pic %d"></div>`, i, i, i, i)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func newsSource(selectors entity.SelectorMap, maxItems int) entity.Source {
	return entity.Source{
		ID:        "news",
		Name:      "News",
		URL:       newsURL,
		Type:      entity.SourceTypeHTML,
		Selectors: selectors,
		MaxItems:  maxItems,
	}
}

func TestHTMLContainerItemsCappedAtMaxItems(t *testing.T) {
	tests := []struct {
		containers int
		maxItems   int
		want       int
	}{
		{containers: 7, maxItems: 5, want: 5},
		{containers: 3, maxItems: 5, want: 3},
		{containers: 4, maxItems: 0, want: 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_containers_max_%d", tt.containers, tt.maxItems), func(t *testing.T) {
			src := newsSource(entity.SelectorMap{
				{Field: entity.ContainerKey, Rule: "div.article"},
				{Field: "title", Rule: "h2"},
			}, tt.maxItems)

			ex := NewHTMLExtractor(fetcherFor(newsURL, articles(tt.containers)), zap.NewNop())
			items, err := ex.Extract(context.Background(), src)
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestHTMLFieldsAndImages(t *testing.T) {
	src := newsSource(entity.SelectorMap{
		{Field: entity.ContainerKey, Rule: "div.article"},
		{Field: "title", Rule: "h2"},
		{Field: "link", Rule: "a"},
		{Field: "photo", Rule: "img"},
	}, 10)

	ex := NewHTMLExtractor(fetcherFor(newsURL, articles(2)), zap.NewNop())
	items, err := ex.Extract(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "news", first.SourceID)
	assert.Equal(t, newsURL, first.SourceURL)
	assert.Equal(t, entity.SourceTypeHTML, first.Type)
	assert.Equal(t, "Story 1", first.Title)
	assert.Equal(t, []string{"title", "link", "photo"}, fieldNames(first.Fields))

	photo, ok := first.Fields.Get("photo")
	require.True(t, ok)
	assert.Equal(t, "pic 1", photo)

	// the field image and the sweep see the same element
	require.Len(t, first.Images, 1)
	assert.Equal(t, "https://news.example.com/img/1.jpg", first.Images[0].URL)
	assert.Equal(t, "pic 1", first.Images[0].Alt)

	assert.Equal(t, "Story 1 read pic 1", first.Content)
}

func TestHTMLImageTitleField(t *testing.T) {
	page := `<html><body>
		<div class="card"><img src="//cdn.example.com/a.png" alt="Sunset"></div>
		<div class="card"><img src="b.png"></div>
	</body></html>`
	src := newsSource(entity.SelectorMap{
		{Field: entity.ContainerKey, Rule: ".card"},
		{Field: "title", Rule: "img"},
	}, 10)

	items, err := NewHTMLExtractor(fetcherFor(newsURL, page), zap.NewNop()).Extract(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Sunset", items[0].Title)
	assert.Equal(t, "https://cdn.example.com/a.png", items[0].Images[0].URL)

	assert.Equal(t, "Image", items[1].Title)
	value, _ := items[1].Fields.Get("title")
	assert.Equal(t, "https://news.example.com/section/b.png", value)
}

func TestHTMLDuplicateImagesInContainer(t *testing.T) {
	page := `<html><body><div class="post"><h2>Twice</h2>
		<img src="/media/p.png" alt="first">
		<img src="https://news.example.com/media/p.png" alt="second">
		<img src="/media/q.png">
	</div></body></html>`
	src := newsSource(entity.SelectorMap{
		{Field: entity.ContainerKey, Rule: "div.post"},
		{Field: "title", Rule: "h2"},
	}, 10)

	items, err := NewHTMLExtractor(fetcherFor(newsURL, page), zap.NewNop()).Extract(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 1)

	images := items[0].Images
	require.Len(t, images, 2)
	assert.Equal(t, entity.ImageInfo{URL: "https://news.example.com/media/p.png", Alt: "first"}, images[0])
	assert.Equal(t, "https://news.example.com/media/q.png", images[1].URL)
}

func TestHTMLContainerWithoutFieldsUsesText(t *testing.T) {
	page := `<html><body><p class="x">  first
		paragraph </p><p class="x"></p></body></html>`
	src := newsSource(entity.SelectorMap{{Field: entity.ContainerKey, Rule: "p.x"}}, 10)

	items, err := NewHTMLExtractor(fetcherFor(newsURL, page), zap.NewNop()).Extract(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 1, "containers with no content are dropped")
	assert.Equal(t, "first paragraph", items[0].Content)
	assert.Empty(t, items[0].Fields)
}

func TestHTMLContainerContentTruncated(t *testing.T) {
	page := "<html><body><div class='c'>" + strings.Repeat("é", 800) + "</div></body></html>"
	src := newsSource(entity.SelectorMap{{Field: entity.ContainerKey, Rule: ".c"}}, 10)

	items, err := NewHTMLExtractor(fetcherFor(newsURL, page), zap.NewNop()).Extract(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 500, utf8.RuneCountInString(items[0].Content))
}

func TestHTMLNoMatchingContainers(t *testing.T) {
	src := newsSource(entity.SelectorMap{{Field: entity.ContainerKey, Rule: "div.missing"}}, 10)

	items, err := NewHTMLExtractor(fetcherFor(newsURL, articles(3)), zap.NewNop()).Extract(context.Background(), src)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestHTMLWholePage(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><head><title> Front  Page </title><style>body{}</style></head><body><script>var x = 1;</script>")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, `<img src="/i/%d.png">`, i)
	}
	b.WriteString("<p>" + strings.Repeat("word ", 400) + "</p></body></html>")

	src := newsSource(nil, 0)
	items, err := NewHTMLExtractor(fetcherFor(newsURL, b.String()), zap.NewNop()).Extract(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "Front Page", item.Title)
	assert.Len(t, item.Images, 20)
	assert.Equal(t, "https://news.example.com/i/0.png", item.Images[0].URL)
	assert.LessOrEqual(t, utf8.RuneCountInString(item.Content), 1000)
	assert.NotContains(t, item.Content, "var x")
	assert.NotContains(t, item.Content, "body{}")
}

func TestHTMLWholePageUntitledUsesURL(t *testing.T) {
	items, err := NewHTMLExtractor(fetcherFor(newsURL, "<p>hi</p>"), zap.NewNop()).
		Extract(context.Background(), newsSource(nil, 0))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, newsURL, items[0].Title)
	assert.Equal(t, "hi", items[0].Content)
}

func TestHTMLInvalidSelector(t *testing.T) {
	fetcher := fetcherFor(newsURL, articles(1))
	src := newsSource(entity.SelectorMap{{Field: entity.ContainerKey, Rule: "div[[["}}, 10)

	_, err := NewHTMLExtractor(fetcher, zap.NewNop()).Extract(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid selector")
	assert.Zero(t, fetcher.calls, "selectors are validated before fetching")
}

func TestHTMLFetchError(t *testing.T) {
	_, err := NewHTMLExtractor(&stubFetcher{err: errUnreachable}, zap.NewNop()).
		Extract(context.Background(), newsSource(nil, 0))
	assert.ErrorIs(t, err, errUnreachable)
}

func fieldNames(fields entity.FieldSet) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}
