package request

import (
	"fmt"
	"strings"

	"github.com/maktaba-labs/maktaba/internal/domain/collection"
	"github.com/maktaba-labs/maktaba/internal/domain/search/expression"
	"github.com/maktaba-labs/maktaba/internal/domain/search/filter"
	"github.com/maktaba-labs/maktaba/internal/domain/search/mode"
	"github.com/maktaba-labs/maktaba/internal/domain/search/normalize"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultPerPage = 20
	MaxPerPage     = 250
	// MatchAll is the engine's wildcard query.
	MatchAll = "*"
	// Relevance is the sort value that keeps the engine's own ranking.
	Relevance = "relevance"
)

// Params is the raw, already-decoded UI filter state.
type Params struct {
	Query    string
	Advanced string
	Page     int
	PerPage  int
	Sort     string
	Mode     mode.Mode
	Facets   filter.FacetFilter
}

// SearchRequest is a validated search against one collection.
type SearchRequest struct {
	collection      collection.Collection
	rawQuery        string
	normalizedQuery string
	freeText        string
	advanced        string
	facets          filter.FacetFilter
	page            int
	perPage         int
	sort            string
	searchMode      mode.Mode
}

// New validates and normalizes search parameters.
// Defaults: mode=keyword, page=1, perPage=20. perPage is clamped to MaxPerPage.
func New(col collection.Collection, p Params) (SearchRequest, error) {
	if len(p.Query) > MaxQueryLength || len(p.Advanced) > MaxQueryLength {
		return SearchRequest{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	m := p.Mode
	if m == "" {
		m = mode.Keyword
	}
	if !m.IsValid() {
		return SearchRequest{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if err := p.Facets.Validate(); err != nil {
		return SearchRequest{}, err
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	sort := strings.TrimSpace(p.Sort)
	if strings.EqualFold(sort, Relevance) {
		sort = ""
	}

	// Whitespace-only expressions parse to nothing; treat them as absent.
	var advanced string
	if g, err := expression.Parse(p.Advanced); err == nil {
		advanced = expression.Serialize(g, true)
	}

	normalized := normalize.Normalize(p.Query)

	return SearchRequest{
		collection:      col,
		rawQuery:        p.Query,
		normalizedQuery: normalized,
		freeText:        normalize.Disjunction(normalize.ExpandVariants(normalized)),
		advanced:        advanced,
		facets:          p.Facets,
		page:            page,
		perPage:         perPage,
		sort:            sort,
		searchMode:      m,
	}, nil
}

// Collection returns the target collection definition.
func (r *SearchRequest) Collection() collection.Collection { return r.collection }

// RawQuery returns the query as typed by the user.
func (r *SearchRequest) RawQuery() string { return r.rawQuery }

// NormalizedQuery returns the normalized query text.
func (r *SearchRequest) NormalizedQuery() string { return r.normalizedQuery }

// FreeText returns the OR-joined spelling variants of the normalized query.
// Normalize already drops the "al" transliteration, so this collapses to
// NormalizedQuery in practice.
func (r *SearchRequest) FreeText() string { return r.freeText }

// Advanced returns the canonical boolean expression, or "".
func (r *SearchRequest) Advanced() string { return r.advanced }

// Facets returns the facet selections.
func (r *SearchRequest) Facets() filter.FacetFilter { return r.facets }

// Page returns the 1-based page number.
func (r *SearchRequest) Page() int { return r.page }

// PerPage returns the page size.
func (r *SearchRequest) PerPage() int { return r.perPage }

// Sort returns the engine sort expression, "" for relevance.
func (r *SearchRequest) Sort() string { return r.sort }

// Mode returns the search strategy.
func (r *SearchRequest) Mode() mode.Mode { return r.searchMode }

// EngineQuery returns the q parameter: the advanced expression when given,
// the free-text disjunction for the global kind, otherwise the normalized
// query. Empty queries match everything.
func (r *SearchRequest) EngineQuery() string {
	q := r.normalizedQuery
	switch {
	case r.advanced != "":
		q = r.advanced
	case r.collection.Kind() == collection.Global:
		q = r.freeText
	}
	if q == "" {
		return MatchAll
	}
	return q
}

// QueryFields returns query_by and query_by_weights. The global kind is
// searched unweighted, so its weights are empty.
func (r *SearchRequest) QueryFields() (fields, weights string) {
	fields, weights = r.collection.Weights().QueryFields()
	if r.collection.Kind() == collection.Global {
		weights = ""
	}
	return fields, weights
}

// FilterBy returns the compiled facet filter expression.
func (r *SearchRequest) FilterBy() string {
	return filter.Expression(r.facets, r.collection.FilterFields())
}
