// Package multi composes the primary search and its auxiliary facet lookups
// into one engine plan.
package multi

import (
	"github.com/maktaba-labs/maktaba/internal/domain/collection"
	"github.com/maktaba-labs/maktaba/internal/domain/search/filter"
	"github.com/maktaba-labs/maktaba/internal/domain/search/request"
)

// PurposePrimary tags the primary search in a Plan.
const PurposePrimary = "primary"

// Query is one engine search, independent of the wire format.
type Query struct {
	Collection              string
	Q                       string
	QueryBy                 string
	QueryByWeights          string
	FilterBy                string
	SortBy                  string
	Page                    int
	PerPage                 int
	PrioritizeTokenPosition bool
	VectorQuery             string
}

// Lookup resolves the documents behind a facet selection.
type Lookup struct {
	Purpose    string
	Collection string
	// Query defaults to match-all.
	Query   string
	QueryBy string
	IDField string
	IDs     []string
	Limit   int
}

// Tagged is a Query labelled with its purpose.
type Tagged struct {
	Purpose string
	Query   Query
}

// Plan is the ordered set of engine queries for one request: the primary
// query first, then lookups in declaration order.
type Plan struct {
	Queries []Tagged
	// Batched sends all queries in a single multi-search call.
	Batched bool
}

// Compose builds the plan for primary and its lookups. Lookups without a
// non-empty id are dropped; lookup limits are capped at collection.MaxLookupLimit.
func Compose(primary request.SearchRequest, lookups []Lookup, batched bool) Plan {
	fields, weights := primary.QueryFields()
	plan := Plan{Batched: batched}
	plan.Queries = append(plan.Queries, Tagged{
		Purpose: PurposePrimary,
		Query: Query{
			Collection:              primary.Collection().Name(),
			Q:                       primary.EngineQuery(),
			QueryBy:                 fields,
			QueryByWeights:          weights,
			FilterBy:                primary.FilterBy(),
			SortBy:                  primary.Sort(),
			Page:                    primary.Page(),
			PerPage:                 primary.PerPage(),
			PrioritizeTokenPosition: true,
		},
	})

	for _, l := range lookups {
		q, ok := lookupQuery(l)
		if !ok {
			continue
		}
		plan.Queries = append(plan.Queries, Tagged{Purpose: l.Purpose, Query: q})
	}
	return plan
}

func lookupQuery(l Lookup) (Query, bool) {
	idField := l.IDField
	if idField == "" {
		idField = "id"
	}
	filterBy := filter.Expression(filter.FacetFilter{IDs: l.IDs}, filter.Fields{IDs: idField})
	if filterBy == "" {
		return Query{}, false
	}

	q := l.Query
	if q == "" {
		q = request.MatchAll
	}
	limit := l.Limit
	if limit <= 0 || limit > collection.MaxLookupLimit {
		limit = collection.MaxLookupLimit
	}
	return Query{
		Collection: l.Collection,
		Q:          q,
		QueryBy:    l.QueryBy,
		FilterBy:   filterBy,
		Page:       1,
		PerPage:    limit,
	}, true
}

// Primary returns the primary query.
func (p Plan) Primary() Query {
	if len(p.Queries) == 0 {
		return Query{}
	}
	return p.Queries[0].Query
}

// Lookups returns the auxiliary queries.
func (p Plan) Lookups() []Tagged {
	if len(p.Queries) < 2 {
		return nil
	}
	return p.Queries[1:]
}

// WithVectorQuery returns a copy of p whose primary query carries vq.
func (p Plan) WithVectorQuery(vq string) Plan {
	out := Plan{Batched: p.Batched, Queries: append([]Tagged(nil), p.Queries...)}
	if len(out.Queries) > 0 {
		out.Queries[0].Query.VectorQuery = vq
	}
	return out
}

// LookupsFor derives the lookups col declares from the facet selections in f.
func LookupsFor(col collection.Collection, f filter.FacetFilter) []Lookup {
	specs := col.Lookups()
	out := make([]Lookup, 0, len(specs))
	for _, s := range specs {
		out = append(out, Lookup{
			Purpose:    s.Purpose,
			Collection: s.Collection,
			QueryBy:    s.QueryBy,
			IDField:    s.IDField,
			IDs:        s.Facet.Select(f),
			Limit:      s.Limit,
		})
	}
	return out
}
