package chi

import (
	"fmt"

	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/search/expression"
	"github.com/maktaba-labs/maktaba/internal/domain/search/filter"
	"github.com/maktaba-labs/maktaba/internal/domain/search/mode"
	"github.com/maktaba-labs/maktaba/internal/domain/search/multi"
	"github.com/maktaba-labs/maktaba/internal/domain/search/request"
	"github.com/maktaba-labs/maktaba/internal/domain/search/result"
	"github.com/maktaba-labs/maktaba/internal/repository/catalog"
)

// Error codes returned in ErrorResponse.Error.Code.
const (
	CodeBadRequest             = "bad_request"
	CodeValidationFailed       = "validation_failed"
	CodeUnauthorized           = "unauthorized"
	CodeNotFound               = "not_found"
	CodeUnknownCollection      = "unknown_collection"
	CodeMalformedExpression    = "malformed_expression"
	CodeEngineUnavailable      = "engine_unavailable"
	CodeEmbeddingProviderError = "embedding_provider_error"
	CodeNotImplemented         = "not_implemented"
	CodeInternalError          = "internal_error"
)

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response. Search endpoints also
// carry an empty Results block so the UI can render "no results".
type ErrorResponse struct {
	Error   ErrorBody   `json:"error"`
	Results *ResultsDTO `json:"results,omitempty"`
}

// SearchRequestDTO is the POST /v1/search/{kind} body.
type SearchRequestDTO struct {
	Q        string      `json:"q" validate:"max=4096"`
	Advanced string      `json:"advanced" validate:"max=4096"`
	Page     int         `json:"page"`
	PerPage  int         `json:"perPage" validate:"gte=0"`
	Sort     string      `json:"sort" validate:"max=256"`
	Mode     string      `json:"mode" validate:"omitempty,oneof=keyword hybrid"`
	Filters  *FiltersDTO `json:"filters"`
}

// FiltersDTO is the facet selection of a search request.
type FiltersDTO struct {
	YearRange   *YearRangeDTO `json:"yearRange" validate:"omitempty"`
	Genres      []string      `json:"genres" validate:"max=256"`
	Authors     []string      `json:"authors" validate:"max=256"`
	Regions     []string      `json:"regions" validate:"max=256"`
	Geographies []string      `json:"geographies" validate:"max=256"`
	IDs         []string      `json:"ids" validate:"max=256"`
}

// YearRangeDTO is an inclusive year range.
type YearRangeDTO struct {
	From int `json:"from"`
	To   int `json:"to" validate:"gtefield=From"`
}

// SearchQueryParams are the GET /v1/search/{kind} query parameters.
// Optional parameters are pointers, as bound by the oapi-codegen runtime.
type SearchQueryParams struct {
	Q           *string
	Advanced    *string
	Page        *int
	PerPage     *int
	Sort        *string
	Mode        *string
	YearFrom    *int
	YearTo      *int
	Genres      *[]string
	Authors     *[]string
	Regions     *[]string
	Geographies *[]string
	IDs         *[]string
}

// toDTO folds query parameters into the POST body shape so both routes share
// one validation path. A year range needs both bounds.
func (p SearchQueryParams) toDTO() SearchRequestDTO {
	dto := SearchRequestDTO{
		Q:        deref(p.Q),
		Advanced: deref(p.Advanced),
		Page:     deref(p.Page),
		PerPage:  deref(p.PerPage),
		Sort:     deref(p.Sort),
		Mode:     deref(p.Mode),
	}
	f := FiltersDTO{
		Genres:      deref(p.Genres),
		Authors:     deref(p.Authors),
		Regions:     deref(p.Regions),
		Geographies: deref(p.Geographies),
		IDs:         deref(p.IDs),
	}
	if p.YearFrom != nil && p.YearTo != nil {
		f.YearRange = &YearRangeDTO{From: *p.YearFrom, To: *p.YearTo}
	}
	dto.Filters = &f
	return dto
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func paramsFromDTO(dto SearchRequestDTO) (request.Params, error) {
	p := request.Params{
		Query:    dto.Q,
		Advanced: dto.Advanced,
		Page:     dto.Page,
		PerPage:  dto.PerPage,
		Sort:     dto.Sort,
		Mode:     mode.Mode(dto.Mode),
	}
	if dto.Filters == nil {
		return p, nil
	}

	f := dto.Filters
	p.Facets = filter.FacetFilter{
		Genres:      f.Genres,
		Authors:     f.Authors,
		Regions:     f.Regions,
		Geographies: f.Geographies,
		IDs:         f.IDs,
	}
	if f.YearRange != nil {
		yr, err := filter.NewYearRange(f.YearRange.From, f.YearRange.To)
		if err != nil {
			return request.Params{}, err
		}
		p.Facets.YearRange = &yr
	}
	return p, nil
}

// HitDTO is one search hit.
type HitDTO struct {
	Document  domain.Document `json:"document"`
	TextMatch int64           `json:"text_match,omitempty"`
}

// ResultsDTO is the primary result block.
type ResultsDTO struct {
	Found int      `json:"found"`
	Page  int      `json:"page"`
	Hits  []HitDTO `json:"hits"`
}

// PaginationDTO mirrors result.Pagination.
type PaginationDTO struct {
	TotalPages   int  `json:"totalPages"`
	TotalRecords int  `json:"totalRecords"`
	CurrentPage  int  `json:"currentPage"`
	HasPrev      bool `json:"hasPrev"`
	HasNext      bool `json:"hasNext"`
}

// HitsDTO wraps auxiliary lookup hits.
type HitsDTO struct {
	Hits []HitDTO `json:"hits"`
}

func hitsToDTO(hits []result.Hit) []HitDTO {
	out := make([]HitDTO, len(hits))
	for i, h := range hits {
		out[i] = HitDTO{Document: h.Document(), TextMatch: h.TextMatch()}
	}
	return out
}

func emptyResults(page int) *ResultsDTO {
	if page < 1 {
		page = 1
	}
	return &ResultsDTO{Found: 0, Page: page, Hits: []HitDTO{}}
}

// searchResponseToDTO renders a response. Auxiliary hits are keyed by
// purpose next to "results", e.g. {"results":…,"selectedAuthors":{"hits":…}}.
func searchResponseToDTO(resp result.Response) map[string]any {
	out := map[string]any{
		"results": ResultsDTO{
			Found: resp.TotalFound,
			Page:  resp.CurrentPage,
			Hits:  hitsToDTO(resp.Hits),
		},
		"pagination": PaginationDTO{
			TotalPages:   resp.Pagination.TotalPages,
			TotalRecords: resp.Pagination.TotalRecords,
			CurrentPage:  resp.Pagination.CurrentPage,
			HasPrev:      resp.Pagination.HasPrev,
			HasNext:      resp.Pagination.HasNext,
		},
	}
	for purpose, hits := range resp.Auxiliary {
		if _, taken := out[purpose]; taken {
			continue
		}
		out[purpose] = HitsDTO{Hits: hitsToDTO(hits)}
	}
	if len(resp.Facets) > 0 {
		out["facets"] = resp.Facets
	}
	return out
}

// QueryDTO is one compiled engine query.
type QueryDTO struct {
	Purpose                 string `json:"purpose"`
	Collection              string `json:"collection"`
	Q                       string `json:"q"`
	QueryBy                 string `json:"query_by,omitempty"`
	QueryByWeights          string `json:"query_by_weights,omitempty"`
	FilterBy                string `json:"filter_by,omitempty"`
	SortBy                  string `json:"sort_by,omitempty"`
	Page                    int    `json:"page"`
	PerPage                 int    `json:"per_page"`
	PrioritizeTokenPosition bool   `json:"prioritize_token_position"`
	VectorQuery             string `json:"vector_query,omitempty"`
}

// PlanResponse explains how a request compiles, without running it.
type PlanResponse struct {
	Kind            string     `json:"kind"`
	Mode            string     `json:"mode"`
	NormalizedQuery string     `json:"normalizedQuery"`
	Batched         bool       `json:"batched"`
	Queries         []QueryDTO `json:"queries"`
}

// NewPlanResponse renders a compiled plan.
func NewPlanResponse(req request.SearchRequest, plan multi.Plan) PlanResponse {
	resp := PlanResponse{
		Kind:            string(req.Collection().Kind()),
		Mode:            string(req.Mode()),
		NormalizedQuery: req.NormalizedQuery(),
		Batched:         plan.Batched,
		Queries:         make([]QueryDTO, len(plan.Queries)),
	}
	for i, t := range plan.Queries {
		q := t.Query
		resp.Queries[i] = QueryDTO{
			Purpose:                 t.Purpose,
			Collection:              q.Collection,
			Q:                       q.Q,
			QueryBy:                 q.QueryBy,
			QueryByWeights:          q.QueryByWeights,
			FilterBy:                q.FilterBy,
			SortBy:                  q.SortBy,
			Page:                    q.Page,
			PerPage:                 q.PerPage,
			PrioritizeTokenPosition: q.PrioritizeTokenPosition,
			VectorQuery:             q.VectorQuery,
		}
	}
	return resp
}

// NodeDTO is a condition tree node. A node with an operator is a condition,
// otherwise a group.
type NodeDTO struct {
	Combinator string    `json:"combinator,omitempty" validate:"omitempty,oneof=AND OR"`
	Children   []NodeDTO `json:"children,omitempty" validate:"omitempty,dive"`
	Operator   string    `json:"operator,omitempty" validate:"omitempty,oneof=like exact startsWith endsWith"`
	Value      string    `json:"value,omitempty"`
	Negate     bool      `json:"negate,omitempty"`
}

// ParseRequest is the POST /v1/expressions/parse body.
type ParseRequest struct {
	Query string `json:"query" validate:"required,max=4096"`
}

// SerializeRequest is the POST /v1/expressions/serialize body.
type SerializeRequest struct {
	Tree NodeDTO `json:"tree"`
}

// SerializeResponse holds the rendered expression.
type SerializeResponse struct {
	Query string `json:"query"`
}

func groupToDTO(g expression.Group) NodeDTO {
	dto := NodeDTO{Combinator: string(g.Combinator), Children: make([]NodeDTO, 0, len(g.Children))}
	for _, child := range g.Children {
		switch n := child.(type) {
		case expression.Group:
			dto.Children = append(dto.Children, groupToDTO(n))
		case expression.Condition:
			dto.Children = append(dto.Children, NodeDTO{
				Operator: string(n.Operator),
				Value:    n.Value,
				Negate:   n.Negate,
			})
		}
	}
	return dto
}

// groupFromDTO converts the root node. A bare condition at the root becomes a
// one-child group.
func groupFromDTO(dto NodeDTO) (expression.Group, error) {
	if dto.Operator != "" {
		return expression.Group{Combinator: expression.And, Children: []expression.Node{conditionFromDTO(dto)}}, nil
	}
	if len(dto.Children) > 0 && dto.Combinator == "" {
		return expression.Group{}, fmt.Errorf("group with children needs a combinator")
	}
	g := expression.Group{Combinator: expression.Combinator(dto.Combinator)}
	for _, c := range dto.Children {
		if c.Operator != "" {
			g.Children = append(g.Children, conditionFromDTO(c))
			continue
		}
		sub, err := groupFromDTO(c)
		if err != nil {
			return expression.Group{}, err
		}
		g.Children = append(g.Children, sub)
	}
	return g, nil
}

func conditionFromDTO(dto NodeDTO) expression.Condition {
	return expression.Condition{
		Operator: expression.Operator(dto.Operator),
		Value:    dto.Value,
		Negate:   dto.Negate,
	}
}

// FacetOptionDTO is one selectable facet value.
type FacetOptionDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BookCount int    `json:"bookCount"`
}

// FacetOptionsResponse lists facet values.
type FacetOptionsResponse struct {
	Facet   string           `json:"facet"`
	Options []FacetOptionDTO `json:"options"`
}

func optionsToDTO(opts []catalog.Option) []FacetOptionDTO {
	out := make([]FacetOptionDTO, len(opts))
	for i, o := range opts {
		out[i] = FacetOptionDTO{ID: o.ID, Name: o.Name, BookCount: o.BookCount}
	}
	return out
}
