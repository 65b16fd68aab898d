package result

import "github.com/maktaba-labs/maktaba/internal/domain"

// Pagination describes the position of a page within the full result set.
type Pagination struct {
	TotalPages   int
	TotalRecords int
	CurrentPage  int
	HasPrev      bool
	HasNext      bool
}

// Paginate derives pagination metadata. page must already be >= 1.
func Paginate(totalFound, page, perPage int) Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = (totalFound + perPage - 1) / perPage
	}
	return Pagination{
		TotalPages:   totalPages,
		TotalRecords: totalFound,
		CurrentPage:  page,
		HasPrev:      page > 1,
		HasNext:      page < totalPages,
	}
}

// Auxiliary is the result of one facet lookup and the primary-hit field that
// carries facet values of the same kind.
type Auxiliary struct {
	Purpose string
	// Facet keys the merged values in Response.Facets.
	Facet          string
	CandidateField string
	Hits           []Hit
}

// Response is the composed search response.
type Response struct {
	Hits        []Hit
	TotalFound  int
	CurrentPage int
	Pagination  Pagination
	// Auxiliary holds lookup hits by purpose, e.g. "selectedAuthors".
	Auxiliary map[string][]Hit
	// Facets holds per-facet values: selected entities first, then
	// candidates taken from primary hits, de-duplicated by id.
	Facets map[string][]domain.Document
}

// Compose merges the primary result with its auxiliary lookups. Primary hit
// order is kept as returned by the engine.
func Compose(primary Raw, page, perPage int, aux []Auxiliary) Response {
	resp := Response{
		Hits:        primary.Hits,
		TotalFound:  primary.Found,
		CurrentPage: page,
		Pagination:  Paginate(primary.Found, page, perPage),
	}
	if resp.Hits == nil {
		resp.Hits = []Hit{}
	}
	if len(aux) == 0 {
		return resp
	}

	resp.Auxiliary = make(map[string][]Hit, len(aux))
	resp.Facets = make(map[string][]domain.Document)
	for _, a := range aux {
		resp.Auxiliary[a.Purpose] = a.Hits
		if a.Facet == "" {
			continue
		}
		resp.Facets[a.Facet] = mergeFacet(resp.Facets[a.Facet], a, primary.Hits)
	}
	return resp
}

func mergeFacet(existing []domain.Document, a Auxiliary, primary []Hit) []domain.Document {
	seen := make(map[string]bool, len(existing))
	for _, d := range existing {
		seen[d.ID()] = true
	}
	add := func(d domain.Document) {
		id := d.ID()
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		existing = append(existing, d)
	}

	for _, h := range a.Hits {
		add(h.Document())
	}
	if a.CandidateField == "" {
		return existing
	}
	for _, h := range primary {
		for _, c := range candidates(h.Document(), a.CandidateField) {
			add(c)
		}
	}
	return existing
}

// candidates extracts facet documents from a hit field holding an embedded
// object, a list of objects, or plain ids.
func candidates(doc domain.Document, field string) []domain.Document {
	switch v := doc[field].(type) {
	case map[string]any:
		return []domain.Document{v}
	case []any:
		var out []domain.Document
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	var out []domain.Document
	for _, id := range doc.Strings(field) {
		out = append(out, domain.Document{"id": id})
	}
	return out
}
