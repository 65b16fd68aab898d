package maktaba

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values. Health reports its own status ("ok", "degraded", "error").
const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeEngine  = "engine_error"
	outcomeError   = "error"
)

// sdkMetrics counts SDK operations per search kind and outcome.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maktaba",
		Subsystem: "sdk",
		Name:      "operations_total",
		Help:      "SDK operations by operation, search kind and outcome.",
	}, []string{"operation", "kind", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "maktaba",
		Subsystem: "sdk",
		Name:      "operation_duration_seconds",
		Help:      "SDK operation duration in seconds by operation and search kind.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"operation", "kind"})

	m := &sdkMetrics{}
	var err error
	if m.operations, err = register(reg, operations); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg. Several clients may share one registry, so an
// identical collector already registered is returned instead.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("maktaba: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("maktaba: metric already registered as %T", are.ExistingCollector)
	}
	return existing, nil
}

// outcome classifies an operation error for metrics and logs.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrUnknownCollection),
		errors.Is(err, ErrMalformedExpression):
		return outcomeInvalid
	case errors.Is(err, ErrEngineUnavailable):
		return outcomeEngine
	default:
		return outcomeError
	}
}

// observer logs and measures SDK operations. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// observe records a search-path operation. kind is empty for operations
// that are not tied to one collection.
func (o *observer) observe(op string, kind Kind, start time.Time, err error) {
	if o == nil {
		return
	}
	out := outcome(err)
	o.record(op, kind, out, time.Since(start))

	if o.logger == nil {
		return
	}
	attrs := []any{"op", op, "kind", string(kind), "outcome", out, "duration", time.Since(start)}
	switch out {
	case outcomeOK:
		o.logger.Debug("operation completed", attrs...)
	case outcomeInvalid:
		o.logger.Info("operation rejected", append(attrs, "error", err)...)
	default:
		o.logger.Warn("operation failed", append(attrs, "error", err)...)
	}
}

// observeHealth records a health check with the aggregated status as outcome.
func (o *observer) observeHealth(start time.Time, status string, checks map[string]string) {
	if o == nil {
		return
	}
	o.record("health", "", status, time.Since(start))

	if o.logger != nil && status != outcomeOK {
		o.logger.Warn("health check not ok", "status", status, "checks", checks)
	}
}

func (o *observer) record(op string, kind Kind, out string, dur time.Duration) {
	if o.metrics == nil {
		return
	}
	o.metrics.operations.WithLabelValues(op, string(kind), out).Inc()
	o.metrics.duration.WithLabelValues(op, string(kind)).Observe(dur.Seconds())
}
