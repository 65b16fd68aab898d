package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/collection"
	"github.com/maktaba-labs/maktaba/internal/domain/search/mode"
	"github.com/maktaba-labs/maktaba/internal/domain/search/multi"
	"github.com/maktaba-labs/maktaba/internal/domain/search/request"
	"github.com/maktaba-labs/maktaba/internal/domain/search/result"
	"github.com/maktaba-labs/maktaba/internal/metrics"
)

// Options tune the search pipeline.
type Options struct {
	// SortAliases maps UI sort names (e.g. "year-asc") to engine sort expressions.
	SortAliases map[string]string
	// Batched sends the primary query and its lookups in one multi-search call.
	// Otherwise they run concurrently as separate searches.
	Batched bool
	Vector  domain.VectorConfig
}

// Service compiles UI filter state into engine queries and composes the results.
type Service struct {
	engine      Engine
	collections map[collection.Kind]collection.Collection
	embed       Embedder
	opts        Options
	logger      *zap.Logger
}

// New creates a search service. embed may be nil, in which case hybrid
// requests are served as keyword searches.
func New(
	engine Engine,
	collections []collection.Collection,
	embed Embedder,
	opts Options,
	logger *zap.Logger,
) *Service {
	byKind := make(map[collection.Kind]collection.Collection, len(collections))
	for _, c := range collections {
		byKind[c.Kind()] = c
	}
	if opts.Vector.Field == "" {
		opts.Vector.Field = domain.DefaultVectorConfig().Field
	}
	if opts.Vector.K <= 0 {
		opts.Vector.K = domain.DefaultVectorConfig().K
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, collections: byKind, embed: embed, opts: opts, logger: logger}
}

// Kinds returns the configured search kinds.
func (s *Service) Kinds() []collection.Kind {
	out := make([]collection.Kind, 0, len(s.collections))
	for _, k := range collection.Kinds() {
		if _, ok := s.collections[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Plan validates p and compiles it into engine queries without running them.
// Hybrid requests are planned without the vector clause.
func (s *Service) Plan(kind collection.Kind, p request.Params) (request.SearchRequest, multi.Plan, error) {
	col, ok := s.collections[kind]
	if !ok {
		return request.SearchRequest{}, multi.Plan{}, fmt.Errorf("%w: %q", domain.ErrUnknownCollection, kind)
	}

	p.Sort = s.resolveSort(p.Sort)
	req, err := request.New(col, p)
	if err != nil {
		return request.SearchRequest{}, multi.Plan{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	plan := multi.Compose(req, multi.LookupsFor(col, req.Facets()), s.opts.Batched)
	return req, plan, nil
}

// Search runs one search request end to end.
func (s *Service) Search(ctx context.Context, kind collection.Kind, p request.Params) (result.Response, error) {
	req, plan, err := s.Plan(kind, p)
	if err != nil {
		return result.Response{}, err
	}

	if req.Mode() == mode.Hybrid {
		if vq, ok := s.vectorClause(ctx, req); ok {
			plan = plan.WithVectorQuery(vq)
		}
	}

	metrics.EngineQueriesPerRequest.Observe(float64(len(plan.Queries)))

	raws, err := s.execute(ctx, plan)
	if err != nil {
		s.logger.Error("Engine search failed",
			zap.String("kind", string(kind)),
			zap.String("collection", req.Collection().Name()),
			zap.Int("queries", len(plan.Queries)),
			zap.Error(err),
		)
		return result.Response{}, fmt.Errorf("%w: %w", domain.ErrEngineUnavailable, err)
	}

	return result.Compose(raws[0], req.Page(), req.PerPage(), auxiliaries(req.Collection(), plan, raws)), nil
}

func (s *Service) resolveSort(sort string) string {
	key := strings.ToLower(strings.TrimSpace(sort))
	if alias, ok := s.opts.SortAliases[key]; ok {
		return alias
	}
	return sort
}

// vectorClause embeds the normalized query. It reports false when hybrid
// search must fall back to keyword ranking.
func (s *Service) vectorClause(ctx context.Context, req request.SearchRequest) (string, bool) {
	text := req.NormalizedQuery()
	switch {
	case s.embed == nil:
		metrics.HybridFallbackTotal.WithLabelValues("no_embedder").Inc()
		return "", false
	case text == "":
		metrics.HybridFallbackTotal.WithLabelValues("empty_query").Inc()
		return "", false
	}

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", false
		}
		metrics.HybridFallbackTotal.WithLabelValues("embed_error").Inc()
		s.logger.Warn("Hybrid search falling back to keyword", zap.Error(err))
		return "", false
	}
	if len(emb.Embedding) == 0 {
		metrics.HybridFallbackTotal.WithLabelValues("embed_error").Inc()
		return "", false
	}
	return vectorQuery(s.opts.Vector.Field, emb.Embedding, s.opts.Vector.K), true
}

// execute runs the plan and returns one raw result per query, in plan order.
func (s *Service) execute(ctx context.Context, plan multi.Plan) ([]result.Raw, error) {
	queries := make([]multi.Query, len(plan.Queries))
	for i, t := range plan.Queries {
		queries[i] = t.Query
	}

	if plan.Batched {
		raws, err := s.engine.MultiSearch(ctx, queries)
		if err != nil {
			return nil, err
		}
		if len(raws) != len(queries) {
			return nil, fmt.Errorf("engine returned %d results for %d queries", len(raws), len(queries))
		}
		return raws, nil
	}

	raws := make([]result.Raw, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			raw, err := s.engine.Search(gctx, q)
			if err != nil {
				return fmt.Errorf("%s: %w", plan.Queries[i].Purpose, err)
			}
			raws[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raws, nil
}

// auxiliaries joins lookup results back to their declarations by purpose.
func auxiliaries(col collection.Collection, plan multi.Plan, raws []result.Raw) []result.Auxiliary {
	lookups := plan.Lookups()
	if len(lookups) == 0 {
		return nil
	}
	aux := make([]result.Auxiliary, 0, len(lookups))
	for i, t := range lookups {
		a := result.Auxiliary{Purpose: t.Purpose, Hits: raws[i+1].Hits}
		if spec, ok := col.LookupByPurpose(t.Purpose); ok {
			a.Facet = string(spec.Facet)
			a.CandidateField = spec.CandidateField
		}
		aux = append(aux, a)
	}
	return aux
}
