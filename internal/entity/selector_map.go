package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContainerKey is the reserved selector naming the repeating element.
const ContainerKey = "container"

// Selector is a single field → rule pair.
type Selector struct {
	Field string
	Rule  string
}

// SelectorMap is an ordered field → selector mapping. On the wire it is a flat
// JSON object; key order is preserved when decoding.
type SelectorMap []Selector

// Get returns the rule for field.
func (m SelectorMap) Get(field string) (string, bool) {
	for _, s := range m {
		if s.Field == field {
			return s.Rule, true
		}
	}
	return "", false
}

// Container returns the container rule, if any.
func (m SelectorMap) Container() (string, bool) {
	rule, ok := m.Get(ContainerKey)
	if !ok || rule == "" {
		return "", false
	}
	return rule, true
}

// Fields returns every selector except the container, in order.
func (m SelectorMap) Fields() []Selector {
	out := make([]Selector, 0, len(m))
	for _, s := range m {
		if s.Field != ContainerKey {
			out = append(out, s)
		}
	}
	return out
}

// Set replaces the rule for field, appending it when absent.
func (m SelectorMap) Set(field, rule string) SelectorMap {
	for i := range m {
		if m[i].Field == field {
			m[i].Rule = rule
			return m
		}
	}
	return append(m, Selector{Field: field, Rule: rule})
}

func (m SelectorMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Field)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.Rule)
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

func (m *SelectorMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("selectors: expected object, got %v", tok)
	}

	out := SelectorMap{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		field, ok := tok.(string)
		if !ok {
			return fmt.Errorf("selectors: expected string key, got %v", tok)
		}
		var rule string
		if err := dec.Decode(&rule); err != nil {
			return fmt.Errorf("selectors: value for %q: %w", field, err)
		}
		out = out.Set(field, rule)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}
