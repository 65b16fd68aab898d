package maktaba

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	engineURL     string
	engineKey     string
	engineTimeout time.Duration

	cacheBackend string // "none", "memory" or "redis"
	cacheSize    int
	cacheTTL     time.Duration
	redisAddrs   []string
	redisPass    string

	embedder    Embedder
	instruction string
	vectorField string
	vectorK     int

	batched     bool
	sortAliases map[string]string
	kinds       map[string]KindConfig

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithEngine sets the Typesense-compatible engine endpoint and API key.
func WithEngine(url, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.engineURL = url
		c.engineKey = apiKey
	})
}

// WithEngineTimeout bounds each engine request. Default: 5s.
func WithEngineTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.engineTimeout = d
	})
}

// WithMemoryCache caches engine responses and query embeddings in process.
func WithMemoryCache(size int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheBackend = "memory"
		c.cacheSize = size
		c.cacheTTL = ttl
	})
}

// WithRedisCache caches engine responses and query embeddings in Redis.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheBackend = "redis"
		c.redisAddrs = []string{addr}
		c.redisPass = password
		c.cacheTTL = ttl
	})
}

// WithEmbedder enables hybrid search with the given embedding provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithQueryInstruction prefixes query text before embedding.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.instruction = instruction
	})
}

// WithVector sets the engine vector field and nearest-neighbour count for hybrid search.
func WithVector(field string, k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorField = field
		c.vectorK = k
	})
}

// WithBatched sends a search and its facet lookups in one multi-search call.
func WithBatched() Option {
	return optionFunc(func(c *clientConfig) {
		c.batched = true
	})
}

// WithSortAliases replaces the default UI sort names ("year-asc", "title-desc", ...).
func WithSortAliases(aliases map[string]string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sortAliases = aliases
	})
}

// WithKind overrides the definition of one kind. Kinds that are never
// overridden keep the built-in definitions.
func WithKind(name string, k KindConfig) Option {
	return optionFunc(func(c *clientConfig) {
		if c.kinds == nil {
			c.kinds = make(map[string]KindConfig)
		}
		c.kinds[name] = k
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
