// Package weight declares per-collection field relevance weights and derives
// the engine's parallel query_by / query_by_weights parameters from them.
package weight

import (
	"fmt"
	"strconv"
	"strings"
)

// Bucket assigns one positive weight to an ordered list of field paths.
type Bucket struct {
	Weight int      `yaml:"weight"`
	Fields []string `yaml:"fields"`
}

// Map is an immutable, ordered set of weight buckets.
type Map struct {
	buckets []Bucket
}

// NewMap validates and creates a Map. Declaration order is preserved;
// a field may appear in only one bucket.
func NewMap(buckets []Bucket) (Map, error) {
	seen := make(map[string]bool)
	copied := make([]Bucket, 0, len(buckets))
	for i, b := range buckets {
		if b.Weight <= 0 {
			return Map{}, fmt.Errorf("bucket %d: weight must be positive", i)
		}
		if len(b.Fields) == 0 {
			return Map{}, fmt.Errorf("bucket %d: at least one field is required", i)
		}
		fields := make([]string, len(b.Fields))
		for j, f := range b.Fields {
			f = strings.TrimSpace(f)
			if f == "" {
				return Map{}, fmt.Errorf("bucket %d: empty field name", i)
			}
			if strings.Contains(f, ",") {
				return Map{}, fmt.Errorf("bucket %d: field %q contains a comma", i, f)
			}
			if seen[f] {
				return Map{}, fmt.Errorf("duplicate field: %s", f)
			}
			seen[f] = true
			fields[j] = f
		}
		copied = append(copied, Bucket{Weight: b.Weight, Fields: fields})
	}
	return Map{buckets: copied}, nil
}

// MustMap is NewMap that panics on error. For static tables only.
func MustMap(buckets ...Bucket) Map {
	m, err := NewMap(buckets)
	if err != nil {
		panic(err)
	}
	return m
}

// Buckets returns a copy of the buckets in declaration order.
func (m Map) Buckets() []Bucket {
	out := make([]Bucket, len(m.buckets))
	for i, b := range m.buckets {
		out[i] = Bucket{Weight: b.Weight, Fields: append([]string(nil), b.Fields...)}
	}
	return out
}

// IsEmpty reports whether the map has no fields.
func (m Map) IsEmpty() bool { return len(m.buckets) == 0 }

// QueryFields flattens the map into comma-separated field and weight lists
// where fields[i] is weighted by weights[i].
func (m Map) QueryFields() (fields, weights string) {
	var fs, ws []string
	for _, b := range m.buckets {
		w := strconv.Itoa(b.Weight)
		for _, f := range b.Fields {
			fs = append(fs, f)
			ws = append(ws, w)
		}
	}
	return strings.Join(fs, ","), strings.Join(ws, ",")
}
