package maktaba

import (
	"context"
	"fmt"
	"time"

	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/collection"
	"github.com/maktaba-labs/maktaba/internal/domain/search/filter"
	"github.com/maktaba-labs/maktaba/internal/domain/search/mode"
	"github.com/maktaba-labs/maktaba/internal/domain/search/request"
	"github.com/maktaba-labs/maktaba/internal/domain/search/result"
)

// Search runs one faceted search and composes the page.
func (c *Client) Search(ctx context.Context, kind Kind, p SearchParams) (res SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", kind, start, err) }()

	params, err := toParams(p)
	if err != nil {
		return SearchResult{}, err
	}
	resp, err := c.searchSvc.Search(ctx, collection.Kind(kind), params)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	return fromResponse(resp), nil
}

// Explain compiles p into engine queries without running them. The primary
// query comes first, followed by facet lookups.
func (c *Client) Explain(kind Kind, p SearchParams) (qs []Query, err error) {
	start := time.Now()
	defer func() { c.obs.observe("explain", kind, start, err) }()

	params, err := toParams(p)
	if err != nil {
		return nil, err
	}
	_, plan, err := c.searchSvc.Plan(collection.Kind(kind), params)
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}

	qs = make([]Query, len(plan.Queries))
	for i, t := range plan.Queries {
		q := t.Query
		qs[i] = Query{
			Purpose:        t.Purpose,
			Collection:     q.Collection,
			Q:              q.Q,
			QueryBy:        q.QueryBy,
			QueryByWeights: q.QueryByWeights,
			FilterBy:       q.FilterBy,
			SortBy:         q.SortBy,
			Page:           q.Page,
			PerPage:        q.PerPage,
		}
	}
	return qs, nil
}

func toParams(p SearchParams) (request.Params, error) {
	f := filter.FacetFilter{
		Genres:      p.Filters.Genres,
		Authors:     p.Filters.Authors,
		Regions:     p.Filters.Regions,
		Geographies: p.Filters.Geographies,
		IDs:         p.Filters.IDs,
	}
	if yr := p.Filters.YearRange; yr != nil {
		r, err := filter.NewYearRange(yr.From, yr.To)
		if err != nil {
			return request.Params{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
		f.YearRange = &r
	}
	return request.Params{
		Query:    p.Query,
		Advanced: p.Advanced,
		Page:     p.Page,
		PerPage:  p.PerPage,
		Sort:     p.Sort,
		Mode:     mode.Mode(p.Mode),
		Facets:   f,
	}, nil
}

func fromResponse(resp result.Response) SearchResult {
	out := SearchResult{
		Hits:  toHits(resp.Hits),
		Found: resp.TotalFound,
		Page:  resp.CurrentPage,
		Pagination: Pagination{
			TotalPages:   resp.Pagination.TotalPages,
			TotalRecords: resp.Pagination.TotalRecords,
			CurrentPage:  resp.Pagination.CurrentPage,
			HasPrev:      resp.Pagination.HasPrev,
			HasNext:      resp.Pagination.HasNext,
		},
	}
	if len(resp.Auxiliary) > 0 {
		out.Auxiliary = make(map[string][]Hit, len(resp.Auxiliary))
		for purpose, hits := range resp.Auxiliary {
			out.Auxiliary[purpose] = toHits(hits)
		}
	}
	if len(resp.Facets) > 0 {
		out.Facets = make(map[string][]map[string]any, len(resp.Facets))
		for facet, docs := range resp.Facets {
			vals := make([]map[string]any, len(docs))
			for i, d := range docs {
				vals[i] = d
			}
			out.Facets[facet] = vals
		}
	}
	return out
}

func toHits(hits []result.Hit) []Hit {
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = Hit{ID: h.ID(), TextMatch: h.TextMatch(), Document: h.Document()}
	}
	return out
}
