package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing; search still works.
	Degraded Status = "degraded"
	// Unhealthy indicates the search engine is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report.Checks keys.
const (
	ComponentEngine    = "engine"
	ComponentCache     = "cache"
	ComponentCatalog   = "catalog"
	ComponentEmbedding = "embedding"
)

// DefaultTimeout bounds each component check.
const DefaultTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine    EngineChecker
	cache     CachePinger
	catalog   Checker
	embedding Checker
	timeout   time.Duration
}

// New creates a Service. cache, catalog and embedding can be nil.
func New(engine EngineChecker, cache CachePinger, catalog, embedding Checker) *Service {
	return &Service{
		engine:    engine,
		cache:     cache,
		catalog:   catalog,
		embedding: embedding,
		timeout:   DefaultTimeout,
	}
}

// Check runs health checks against all components concurrently.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]func(context.Context) error, 4)
	checks[ComponentEngine] = s.engine.HealthCheck
	if s.cache != nil {
		checks[ComponentCache] = s.cache.Ping
	}
	if s.catalog != nil {
		checks[ComponentCatalog] = s.catalog.HealthCheck
	}
	if s.embedding != nil {
		checks[ComponentEmbedding] = s.embedding.HealthCheck
	}

	var mu sync.Mutex
	results := make(map[string]CheckResult, len(checks))
	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			res := CheckOK
			if err := check(cctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for _, v := range results {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if results[ComponentEngine] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: results}
}
