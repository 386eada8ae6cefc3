// Package records implements raw-record mappers for the scrape providers.
// Provider payloads are loosely typed JSON, so every field access is
// defensive: a missing or oddly typed value degrades to a zero value, and
// only the review identity is required.
package records

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func stringField(record map[string]any, key string) string {
	value, ok := record[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func floatField(record map[string]any, key string) (float64, bool) {
	value, ok := record[key]
	if !ok || value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func intField(record map[string]any, key string) int {
	if v, ok := floatField(record, key); ok {
		return int(v)
	}
	return 0
}

func boolField(record map[string]any, key string) bool {
	value, ok := record[key]
	if !ok || value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	case float64:
		return v != 0
	default:
		return false
	}
}

func mapField(record map[string]any, key string) map[string]any {
	if value, ok := record[key].(map[string]any); ok {
		return value
	}
	return nil
}

// plainText strips provider HTML markup out of scraped text. Records
// sometimes carry owner responses and review bodies with embedded tags.
func plainText(value string) string {
	if !strings.Contains(value, "<") {
		return value
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return value
	}
	return strings.TrimSpace(doc.Text())
}

func requireString(record map[string]any, key string) (string, error) {
	value := stringField(record, key)
	if value == "" {
		return "", fmt.Errorf("record missing %s", key)
	}
	return value, nil
}
