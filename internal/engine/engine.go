// Package engine is the port to the external search engine.
package engine

import (
	"context"
	"strconv"

	"github.com/maktaba-labs/maktaba/internal/domain/search/multi"
	"github.com/maktaba-labs/maktaba/internal/domain/search/result"
)

// Searcher runs engine queries.
type Searcher interface {
	// Search runs a single query.
	Search(ctx context.Context, q multi.Query) (result.Raw, error)
	// MultiSearch runs queries in one round trip. Results are returned in
	// query order; any failed sub-query fails the whole call.
	MultiSearch(ctx context.Context, qs []multi.Query) ([]result.Raw, error)
}

// Op constants name engine operations for errors and metrics.
const (
	OpSearch      = "search"
	OpMultiSearch = "multi_search"
	OpHealth      = "health"
)

// Error is a failed engine call. Status is the HTTP status, 0 for transport failures.
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return "engine " + e.Op + ": " + e.Err.Error()
	}
	return "engine " + e.Op + ": status " + strconv.Itoa(e.Status) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
