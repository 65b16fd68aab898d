package domain

import (
	"fmt"
	"strconv"
)

// Document is an engine document as returned in a hit. Its shape depends on
// the collection, so it stays a generic JSON object.
type Document map[string]any

// ID returns the document's "id" field as a string, or "" if absent.
func (d Document) ID() string {
	switch v := d["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Strings returns the values of field as strings. Scalar fields yield one
// value; arrays yield their string and numeric elements.
func (d Document) Strings(field string) []string {
	switch v := d[field].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			switch s := e.(type) {
			case string:
				out = append(out, s)
			case float64:
				out = append(out, strconv.FormatFloat(s, 'f', -1, 64))
			}
		}
		return out
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	}
	return nil
}
