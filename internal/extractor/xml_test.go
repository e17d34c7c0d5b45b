package extractor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/source-crawler/internal/entity"
)

const catalogURL = "https://data.example.com/catalog.xml"

func TestXMLRecords(t *testing.T) {
	body := `<?xml version="1.0"?>
<catalog>
  <meta>ignored</meta>
  <item><name>Widget</name>
    <price> 9.99 </price></item>
  <ns:entry xmlns:ns="urn:x">Gadget</ns:entry>
  <record>Outer <item>Inner</item></record>
</catalog>`

	src := entity.Source{ID: "catalog", URL: catalogURL, Type: entity.SourceTypeXML}
	items, err := NewXMLExtractor(fetcherFor(catalogURL, body), zap.NewNop()).Extract(context.Background(), src)
	require.NoError(t, err)

	contents := make([]string, 0, len(items))
	for _, item := range items {
		contents = append(contents, item.Content)
		assert.Equal(t, entity.SourceTypeXML, item.Type)
		assert.Equal(t, "catalog", item.SourceID)
	}
	assert.Equal(t, []string{"Widget 9.99", "Gadget", "Outer Inner", "Inner"}, contents)
}

func TestXMLEmitsEveryRecord(t *testing.T) {
	var b strings.Builder
	b.WriteString("<list>")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "<item>record %d</item>", i)
	}
	b.WriteString("</list>")
	src := entity.Source{ID: "list", URL: catalogURL, Type: entity.SourceTypeXML}

	items, err := NewXMLExtractor(fetcherFor(catalogURL, b.String()), zap.NewNop()).Extract(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 60)
	assert.Equal(t, "record 0", items[0].Content)
	assert.Equal(t, "record 59", items[59].Content)

	src.MaxItems = 2
	items, err = NewXMLExtractor(fetcherFor(catalogURL, b.String()), zap.NewNop()).Extract(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, items, 60)
}

func TestXMLDeclaredCharset(t *testing.T) {
	body := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><list><item>caf\xe9</item></list>"
	src := entity.Source{ID: "list", URL: catalogURL, Type: entity.SourceTypeXML}

	items, err := NewXMLExtractor(fetcherFor(catalogURL, body), zap.NewNop()).Extract(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "café", items[0].Content)
}

func TestXMLWithoutRecordsIsOneItem(t *testing.T) {
	body := "<root><meta>Quarterly</meta>\n  <total> 42 </total></root>"
	src := entity.Source{ID: "x", URL: catalogURL, Type: entity.SourceTypeXML}

	items, err := NewXMLExtractor(fetcherFor(catalogURL, body), zap.NewNop()).Extract(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Quarterly 42", items[0].Content)
}

func TestXMLEmptyDocument(t *testing.T) {
	for name, body := range map[string]string{
		"empty body":    "",
		"only elements": "<root><meta/><other></other></root>",
	} {
		t.Run(name, func(t *testing.T) {
			src := entity.Source{ID: "x", URL: catalogURL, Type: entity.SourceTypeXML}
			items, err := NewXMLExtractor(fetcherFor(catalogURL, body), zap.NewNop()).Extract(context.Background(), src)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestXMLMalformed(t *testing.T) {
	src := entity.Source{ID: "x", URL: catalogURL, Type: entity.SourceTypeXML}
	_, err := NewXMLExtractor(fetcherFor(catalogURL, "<root><item>open"), zap.NewNop()).
		Extract(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse xml")
}
