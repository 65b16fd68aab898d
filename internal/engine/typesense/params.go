package typesense

import "github.com/maktaba-labs/maktaba/internal/domain/search/multi"

// Params is the wire form of one search. Empty fields are omitted so the
// engine applies its own defaults.
type Params struct {
	Collection              string `json:"collection,omitempty"`
	Q                       string `json:"q"`
	QueryBy                 string `json:"query_by,omitempty"`
	QueryByWeights          string `json:"query_by_weights,omitempty"`
	FilterBy                string `json:"filter_by,omitempty"`
	SortBy                  string `json:"sort_by,omitempty"`
	Page                    int    `json:"page,omitempty"`
	PerPage                 int    `json:"per_page,omitempty"`
	PrioritizeTokenPosition bool   `json:"prioritize_token_position,omitempty"`
	VectorQuery             string `json:"vector_query,omitempty"`
}

// ToParams converts a query into its wire form.
func ToParams(q multi.Query) Params {
	return Params{
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
