package core

import (
	"encoding/json"
	"strings"
)

const (
	// ColumnWidthsKey names the persisted column widths.
	ColumnWidthsKey = "expenseTableColumnWidths"
	// MinColumnWidth is the narrowest a column may be resized to.
	MinColumnWidth = 50
	// MaxColumnWidth caps stored widths so a bad value cannot break the layout.
	MaxColumnWidth = 2000
)

// ColumnWidths maps a column name to its pixel width.
type ColumnWidths map[string]int

// DefaultColumnWidths returns the initial widths of the resizable columns.
func DefaultColumnWidths() ColumnWidths {
	return ColumnWidths{
		"category":    150,
		"description": 300,
	}
}

// Width returns the stored width for a column, or 0 when it has none.
func (c ColumnWidths) Width(column string) int {
	return c[column]
}

// Set stores a width clamped to the allowed range.
func (c ColumnWidths) Set(column string, px int) {
	column = strings.TrimSpace(column)
	if column == "" {
		return
	}
	if px < MinColumnWidth {
		px = MinColumnWidth
	}
	if px > MaxColumnWidth {
		px = MaxColumnWidth
	}
	c[column] = px
}

// Merge overlays other on top of c and returns c.
func (c ColumnWidths) Merge(other ColumnWidths) ColumnWidths {
	for k, v := range other {
		c.Set(k, v)
	}
	return c
}

// Encode returns the JSON object form.
func (c ColumnWidths) Encode() string {
	b, err := json.Marshal(map[string]int(c))
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DecodeColumnWidths parses a stored JSON object. Anything unreadable
// falls back to the defaults.
func DecodeColumnWidths(s string) ColumnWidths {
	widths := DefaultColumnWidths()
	s = strings.TrimSpace(s)
	if s == "" {
		return widths
	}
	var stored map[string]int
	if err := json.Unmarshal([]byte(s), &stored); err != nil {
		return widths
	}
	return widths.Merge(stored)
}
