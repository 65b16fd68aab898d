package multi

import (
	"testing"

	"github.com/maktaba-labs/maktaba/internal/domain/collection"
	"github.com/maktaba-labs/maktaba/internal/domain/search/filter"
	"github.com/maktaba-labs/maktaba/internal/domain/search/request"
	"github.com/maktaba-labs/maktaba/internal/domain/search/weight"
)

func booksCollection(t *testing.T) collection.Collection {
	t.Helper()
	col, err := collection.New(collection.Books, "books",
		weight.MustMap(
			weight.Bucket{Weight: 3, Fields: []string{"primaryName"}},
			weight.Bucket{Weight: 1, Fields: []string{"author.name"}},
		),
		filter.Fields{},
		[]collection.LookupSpec{
			{Purpose: "selectedAuthors", Facet: collection.FacetAuthors, Collection: "authors", QueryBy: "primaryName", CandidateField: "author"},
			{Purpose: "selectedGenres", Facet: collection.FacetGenres, Collection: "genres", QueryBy: "name", Limit: 500},
		},
	)
	if err != nil {
		t.Fatalf("collection.New: %v", err)
	}
	return col
}

func newRequest(t *testing.T, col collection.Collection, p request.Params) request.SearchRequest {
	t.Helper()
	r, err := request.New(col, p)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return r
}

func TestCompose_PrimaryOnly(t *testing.T) {
	col := booksCollection(t)
	r := newRequest(t, col, request.Params{Query: "al-Bukhari", Page: 2, PerPage: 10, Sort: "year:desc"})

	plan := Compose(r, LookupsFor(col, r.Facets()), true)

	if len(plan.Queries) != 1 {
		t.Fatalf("len(Queries) = %d, want 1", len(plan.Queries))
	}
	if plan.Queries[0].Purpose != PurposePrimary {
		t.Errorf("Purpose = %q", plan.Queries[0].Purpose)
	}
	want := Query{
		Collection:              "books",
		Q:                       "Bukhari",
		QueryBy:                 "primaryName,author.name",
		QueryByWeights:          "3,1",
		SortBy:                  "year:desc",
		Page:                    2,
		PerPage:                 10,
		PrioritizeTokenPosition: true,
	}
	if got := plan.Primary(); got != want {
		t.Errorf("Primary() = %+v, want %+v", got, want)
	}
	if plan.Lookups() != nil {
		t.Errorf("Lookups() = %+v, want none", plan.Lookups())
	}
	if !plan.Batched {
		t.Error("Batched = false")
	}
}

func TestCompose_WithLookups(t *testing.T) {
	col := booksCollection(t)
	r := newRequest(t, col, request.Params{
		Facets: filter.FacetFilter{Authors: []string{"a1", "", "a2"}, Genres: []string{"g1"}},
	})

	plan := Compose(r, LookupsFor(col, r.Facets()), false)

	if len(plan.Queries) != 3 {
		t.Fatalf("len(Queries) = %d, want 3", len(plan.Queries))
	}
	if got := plan.Primary().FilterBy; got != "genreTags:[`g1`] && authorId:[`a1`, `a2`]" {
		t.Errorf("primary FilterBy = %q", got)
	}

	authors := plan.Queries[1]
	if authors.Purpose != "selectedAuthors" {
		t.Errorf("Queries[1].Purpose = %q", authors.Purpose)
	}
	wantAuthors := Query{
		Collection: "authors",
		Q:          request.MatchAll,
		QueryBy:    "primaryName",
		FilterBy:   "id:[`a1`, `a2`]",
		Page:       1,
		PerPage:    collection.MaxLookupLimit,
	}
	if authors.Query != wantAuthors {
		t.Errorf("authors lookup = %+v, want %+v", authors.Query, wantAuthors)
	}

	genres := plan.Queries[2]
	if genres.Purpose != "selectedGenres" || genres.Query.PerPage != collection.MaxLookupLimit {
		t.Errorf("genres lookup = %+v", genres)
	}
}

func TestCompose_DropsEmptySelections(t *testing.T) {
	col := booksCollection(t)
	r := newRequest(t, col, request.Params{})

	plan := Compose(r, []Lookup{
		{Purpose: "none", Collection: "authors"},
		{Purpose: "blank", Collection: "authors", IDs: []string{"", ""}},
		{Purpose: "kept", Collection: "authors", IDs: []string{"a1"}, Limit: 5, Query: "x", IDField: "authorId"},
	}, true)

	if len(plan.Queries) != 2 {
		t.Fatalf("len(Queries) = %d, want 2", len(plan.Queries))
	}
	kept := plan.Queries[1].Query
	if kept.FilterBy != "authorId:[`a1`]" || kept.PerPage != 5 || kept.Q != "x" {
		t.Errorf("kept lookup = %+v", kept)
	}
}

func TestPlan_WithVectorQuery(t *testing.T) {
	col := booksCollection(t)
	r := newRequest(t, col, request.Params{Facets: filter.FacetFilter{Authors: []string{"a1"}}})
	plan := Compose(r, LookupsFor(col, r.Facets()), true)

	hybrid := plan.WithVectorQuery("embedding:([0.1], k:10)")

	if hybrid.Primary().VectorQuery != "embedding:([0.1], k:10)" {
		t.Errorf("VectorQuery = %q", hybrid.Primary().VectorQuery)
	}
	if hybrid.Lookups()[0].Query.VectorQuery != "" {
		t.Error("lookup should not carry the vector query")
	}
	if plan.Primary().VectorQuery != "" {
		t.Error("WithVectorQuery mutated the original plan")
	}
}

func TestPlan_EmptyAccessors(t *testing.T) {
	var p Plan
	if p.Primary() != (Query{}) {
		t.Error("Primary() of empty plan should be zero")
	}
	if p.Lookups() != nil {
		t.Error("Lookups() of empty plan should be nil")
	}
}
