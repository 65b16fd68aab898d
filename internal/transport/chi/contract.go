package chi

import (
	"context"

	"github.com/maktaba-labs/maktaba/internal/domain/collection"
	"github.com/maktaba-labs/maktaba/internal/domain/search/multi"
	"github.com/maktaba-labs/maktaba/internal/domain/search/request"
	"github.com/maktaba-labs/maktaba/internal/domain/search/result"
	"github.com/maktaba-labs/maktaba/internal/repository/catalog"
	healthuc "github.com/maktaba-labs/maktaba/internal/usecase/health"
)

// Searcher compiles and runs faceted searches.
type Searcher interface {
	Search(ctx context.Context, kind collection.Kind, p request.Params) (result.Response, error)
	Plan(kind collection.Kind, p request.Params) (request.SearchRequest, multi.Plan, error)
}

// Catalog lists selectable facet values.
type Catalog interface {
	List(ctx context.Context, facet collection.Facet, limit int) ([]catalog.Option, error)
	Lookup(ctx context.Context, facet collection.Facet, ids []string) ([]catalog.Option, error)
}

// HealthReporter aggregates component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}
