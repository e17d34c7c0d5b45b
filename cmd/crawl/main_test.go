package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/source-crawler/internal/entity"
)

func TestRunFlagsSource(t *testing.T) {
	f := runFlags{
		url:        "https://example.com/blog",
		sourceType: "html",
		selectors:  []string{"container=.post", "title = h2 a", "image=img.cover"},
		maxItems:   5,
	}

	src, err := f.source()
	require.NoError(t, err)
	assert.Equal(t, "temp_crawl", src.ID)
	assert.Equal(t, entity.SourceTypeHTML, src.Type)
	assert.Equal(t, 5, src.MaxItems)

	container, ok := src.Selectors.Container()
	require.True(t, ok)
	assert.Equal(t, ".post", container)
	title, _ := src.Selectors.Get("title")
	assert.Equal(t, "h2 a", title)
	assert.Equal(t, "container", src.Selectors[0].Field)
}

func TestRunFlagsDefaultMaxItems(t *testing.T) {
	src, err := runFlags{url: "https://example.com", sourceType: "rss"}.source()
	require.NoError(t, err)
	assert.Equal(t, 20, src.MaxItems)
	assert.Equal(t, 20, src.ItemLimit())

	flag := newRunCmd().Flags().Lookup("max-items")
	require.NotNil(t, flag)
	assert.Equal(t, "20", flag.DefValue)
}

func TestRunFlagsSourceErrors(t *testing.T) {
	_, err := runFlags{url: "https://example.com", sourceType: "video"}.source()
	assert.EqualError(t, err, "unsupported source type: video")

	_, err = runFlags{url: "https://example.com", sourceType: "html", selectors: []string{"title"}}.source()
	assert.Error(t, err)
}
