package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ImageInfo represents an image referenced by an extracted item.
type ImageInfo struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// FieldValue is one extracted selector field.
type FieldValue struct {
	Name  string
	Value string
}

// FieldSet is an ordered field → text mapping, encoded as a JSON object.
type FieldSet []FieldValue

// Get returns the value of the named field.
func (f FieldSet) Get(name string) (string, bool) {
	for _, fv := range f {
		if fv.Name == name {
			return fv.Value, true
		}
	}
	return "", false
}

// Values returns the field values in extraction order.
func (f FieldSet) Values() []string {
	out := make([]string, len(f))
	for i, fv := range f {
		out[i] = fv.Value
	}
	return out
}

func (f FieldSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fv := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fv.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *FieldSet) UnmarshalJSON(data []byte) error {
	var selectors SelectorMap
	if err := selectors.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("fields: %w", err)
	}
	out := make(FieldSet, 0, len(selectors))
	for _, s := range selectors {
		out = append(out, FieldValue{Name: s.Field, Value: s.Rule})
	}
	*f = out
	return nil
}

// DataItem mirrors the `data_items` PostgreSQL table schema.
// CollectedAt is assigned by the store, never by an extractor.
type DataItem struct {
	ID          string      `json:"_id,omitempty"`
	SourceID    string      `json:"source_id"`
	SourceURL   string      `json:"source_url"`
	Type        SourceType  `json:"type"`
	Title       string      `json:"title,omitempty"`
	Content     string      `json:"content"`
	Fields      FieldSet    `json:"data,omitempty"`
	Images      []ImageInfo `json:"images,omitempty"` // Stored as JSONB in PostgreSQL
	Link        string      `json:"link,omitempty"`
	Published   string      `json:"published,omitempty"`
	Pages       int         `json:"pages,omitempty"`
	CollectedAt time.Time   `json:"timestamp,omitempty"`
}

// HasImage reports whether an image with the given URL is already recorded.
func (d *DataItem) HasImage(url string) bool {
	for _, img := range d.Images {
		if img.URL == url {
			return true
		}
	}
	return false
}

// Empty reports whether nothing was extracted into the item.
func (d *DataItem) Empty() bool {
	return len(d.Fields) == 0 && d.Content == "" && len(d.Images) == 0
}
