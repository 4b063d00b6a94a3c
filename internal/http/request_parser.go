// Package http provides the budget web server and its handlers.
//
// This file implements utilities for reading request bodies and query
// parameters. JSON and form-encoded bodies are read through the same
// accessor so the API and the classic form posts share their field rules.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budget/internal/core"
)

// maxBodyBytes bounds every request body the handlers read.
const maxBodyBytes = 1 << 20

// msgNoData is returned for empty or malformed JSON bodies.
const msgNoData = "No data provided"

var errEmptyBody = errors.New("empty request body")

// DateRange is an inclusive date window read from query parameters.
type DateRange struct {
	From core.Date
	To   core.Date
}

// ParseDateRange reads from/to (YYYY-MM-DD). Missing or invalid bounds take
// the defaults, and a reversed range is swapped.
func ParseDateRange(query url.Values, defFrom, defTo core.Date) DateRange {
	dr := DateRange{
		From: parseDateOr(query.Get("from"), defFrom),
		To:   parseDateOr(query.Get("to"), defTo),
	}
	if !dr.From.IsZero() && !dr.To.IsZero() && dr.To.Before(dr.From) {
		dr.From, dr.To = dr.To, dr.From
	}
	return dr
}

// RequestBodyParser reads a JSON object or form-encoded body once and
// exposes its fields as trimmed, sanitized strings.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body of r, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body. JSON is detected from the content type or a
// leading brace; anything else is parsed as a query string. An empty body
// is an error.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.err = errEmptyBody
		return p.err
	}

	if strings.Contains(p.contentType, "application/json") || trimmed[0] == '{' || trimmed[0] == '[' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(trimmed, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns a field value, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether the field was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Bool reads a checkbox-style field.
func (p *RequestBodyParser) Bool(key string) bool {
	return parseBool(p.Get(key))
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// Raw returns the body as read.
func (p *RequestBodyParser) Raw() []byte {
	return p.body
}

// stringValue converts a decoded JSON scalar to its string form.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// formValues adapts r.PostForm to the parser's accessors.
type formValues url.Values

func (f formValues) Get(key string) string { return sanitizeInput(url.Values(f).Get(key)) }
func (f formValues) Bool(key string) bool  { return parseBool(url.Values(f).Get(key)) }

// fieldSource is what the expense and income builders read from.
type fieldSource interface {
	Get(key string) string
	Bool(key string) bool
}
