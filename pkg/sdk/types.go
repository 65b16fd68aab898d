package maktaba

import (
	"github.com/maktaba-labs/maktaba/internal/config"
	"github.com/maktaba-labs/maktaba/internal/domain/collection"
	"github.com/maktaba-labs/maktaba/internal/domain/search/mode"
)

// Kind selects a searchable collection.
type Kind string

// Kind constants.
const (
	Authors = Kind(collection.Authors)
	Books   = Kind(collection.Books)
	Genres  = Kind(collection.Genres)
	Regions = Kind(collection.Regions)
	Global  = Kind(collection.Global)
)

// SearchMode controls the search strategy.
type SearchMode string

// Search mode constants.
const (
	ModeKeyword = SearchMode(mode.Keyword)
	ModeHybrid  = SearchMode(mode.Hybrid)
)

// KindConfig declares the collection, weighted fields, filter fields and
// lookups of one kind, as in the server's YAML config.
type KindConfig = config.KindConfig

// YearRange is an inclusive year range.
type YearRange struct {
	From int
	To   int
}

// Filters is the facet selection of a search. Empty lists constrain nothing.
type Filters struct {
	YearRange   *YearRange
	Genres      []string
	Authors     []string
	Regions     []string
	Geographies []string
	IDs         []string
}

// SearchParams describes one search request.
type SearchParams struct {
	Query string
	// Advanced is a boolean expression such as `a AND (b OR "c")`. It overrides Query.
	Advanced string
	Page     int
	PerPage  int
	// Sort is a configured alias (e.g. "year-asc") or an engine sort expression.
	Sort    string
	Mode    SearchMode
	Filters Filters
}

// Hit is a single search hit.
type Hit struct {
	ID        string
	TextMatch int64
	Document  map[string]any
}

// Pagination describes the position of a page within the full result set.
type Pagination struct {
	TotalPages   int
	TotalRecords int
	CurrentPage  int
	HasPrev      bool
	HasNext      bool
}

// SearchResult is a composed search page.
type SearchResult struct {
	Hits       []Hit
	Found      int
	Page       int
	Pagination Pagination
	// Auxiliary holds lookup hits by purpose, e.g. "selectedAuthors".
	Auxiliary map[string][]Hit
	// Facets holds selected entities first, then candidates from the page.
	Facets map[string][]map[string]any
}

// Query is one compiled engine query, as returned by Explain.
type Query struct {
	Purpose        string
	Collection     string
	Q              string
	QueryBy        string
	QueryByWeights string
	FilterBy       string
	SortBy         string
	Page           int
	PerPage        int
}
