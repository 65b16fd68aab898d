package health

import "context"

// EngineChecker checks search engine availability.
type EngineChecker interface {
	HealthCheck(ctx context.Context) error
}

// CachePinger checks cache store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Checker is an optional dependency with its own health check
// (facet catalog, embedding provider).
type Checker interface {
	HealthCheck(ctx context.Context) error
}
