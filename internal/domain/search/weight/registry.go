package weight

import "sort"

// Registry holds the weight map of every searchable collection kind. It is
// built once at startup and safe for concurrent reads.
type Registry struct {
	maps map[string]Map
}

// NewRegistry creates a Registry from maps keyed by kind.
func NewRegistry(maps map[string]Map) *Registry {
	copied := make(map[string]Map, len(maps))
	for k, m := range maps {
		copied[k] = m
	}
	return &Registry{maps: copied}
}

// Lookup returns the map for kind.
func (r *Registry) Lookup(kind string) (Map, bool) {
	m, ok := r.maps[kind]
	return m, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.maps))
	for k := range r.maps {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
