// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package post

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Request parameter names.
const (
	ParamID            = "id"
	ParamTitle         = "title"
	ParamContent       = "content"
	ParamStatus        = "status"
	ParamDate          = "date"
	ParamAuthor        = "author"
	ParamCategory      = "category"
	ParamTag           = "tag"
	ParamFeaturedImage = "featured_image"
	ParamTrash         = "trash"
)

// Fields are the normalized inputs of a create or update request. Empty
// strings, zero IDs and nil slices mean the field was not supplied.
type Fields struct {
	ID            int64
	Title         string
	Content       string
	Status        string
	Date          string
	Author        int64
	Categories    []int64
	Tags          []string
	FeaturedImage string
}

var (
	textPolicy   = bluemonday.StrictPolicy()
	angleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")
)

// sanitizeText strips markup and surrounding space from a single-line value.
// Entities are decoded before stripping so encoded tags are removed too; the
// result is plain text with angle brackets kept escaped.
func sanitizeText(s string) string {
	text := html.UnescapeString(textPolicy.Sanitize(html.UnescapeString(s)))
	return strings.TrimSpace(angleEscaper.Replace(text))
}

// DecodeFields normalizes loosely typed request values. Values may be
// strings, json.Number, float64 or slices of those; categories and tags
// may also be comma separated strings.
func DecodeFields(values map[string]any) Fields {
	return Fields{
		ID:            ParseID(values[ParamID]),
		Title:         sanitizeText(stringValue(values[ParamTitle])),
		Content:       stringValue(values[ParamContent]),
		Status:        strings.TrimSpace(stringValue(values[ParamStatus])),
		Date:          strings.TrimSpace(stringValue(values[ParamDate])),
		Author:        ParseID(values[ParamAuthor]),
		Categories:    ParseIDList(values[ParamCategory]),
		Tags:          ParseNameList(values[ParamTag]),
		FeaturedImage: strings.TrimSpace(stringValue(values[ParamFeaturedImage])),
	}
}

// ParseID returns a positive ID from v, or 0.
func ParseID(v any) int64 {
	id, ok := toInt(v)
	if !ok || id <= 0 {
		return 0
	}
	return id
}

// ParseIDList accepts "1,2,3" or a list of numbers or numeric strings.
// Invalid and non-positive entries are dropped. The result is nil when
// nothing usable remains.
func ParseIDList(v any) []int64 {
	var ids []int64
	for _, item := range listItems(v) {
		if id := ParseID(item); id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// ParseNameList accepts "a, b" or a list of strings. Entries are trimmed and
// stripped of markup; empty entries are dropped.
func ParseNameList(v any) []string {
	var names []string
	for _, item := range listItems(v) {
		if name := sanitizeText(stringValue(item)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func listItems(v any) []any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		parts := strings.Split(x, ",")
		items := make([]any, 0, len(parts))
		for _, p := range parts {
			items = append(items, p)
		}
		return items
	case []any:
		return x
	case []string:
		items := make([]any, 0, len(x))
		for _, s := range x {
			items = append(items, s)
		}
		return items
	default:
		return []any{x}
	}
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		if x != float64(int64(x)) {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		return 0, false
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		if len(x) > 0 {
			return stringValue(x[0])
		}
		return ""
	case []string:
		if len(x) > 0 {
			return x[0]
		}
		return ""
	}
	return fmt.Sprint(v)
}

// DateLayout is the wire format of post dates.
const DateLayout = "2006-01-02 15:04:05"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate parses s in one of the accepted layouts. Dates without a zone
// are taken to be in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
