package search

import (
	"strconv"
	"strings"
)

// vectorQuery renders the engine's nearest-neighbour clause,
// e.g. embedding:([0.1,0.2], k:100).
func vectorQuery(field string, vec []float32, k int) string {
	var b strings.Builder
	b.Grow(len(field) + len(vec)*10 + 16)
	b.WriteString(field)
	b.WriteString(":([")
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteString("], k:")
	b.WriteString(strconv.Itoa(k))
	b.WriteByte(')')
	return b.String()
}
