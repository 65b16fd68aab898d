package maktaba

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maktaba-labs/maktaba/internal/config"
	"github.com/maktaba-labs/maktaba/internal/db"
	"github.com/maktaba-labs/maktaba/internal/db/memory"
	dbRedis "github.com/maktaba-labs/maktaba/internal/db/redis"
	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/collection"
	"github.com/maktaba-labs/maktaba/internal/domain/search/multi"
	"github.com/maktaba-labs/maktaba/internal/domain/search/request"
	"github.com/maktaba-labs/maktaba/internal/domain/search/result"
	"github.com/maktaba-labs/maktaba/internal/engine/typesense"
	"github.com/maktaba-labs/maktaba/internal/metrics"
	"github.com/maktaba-labs/maktaba/internal/repository/embcache"
	searchrepo "github.com/maktaba-labs/maktaba/internal/repository/search"
	embeddinguc "github.com/maktaba-labs/maktaba/internal/usecase/embedding"
	healthuc "github.com/maktaba-labs/maktaba/internal/usecase/health"
	searchuc "github.com/maktaba-labs/maktaba/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped in tests.
type searchUseCase interface {
	Search(ctx context.Context, kind collection.Kind, p request.Params) (result.Response, error)
	Plan(kind collection.Kind, p request.Params) (request.SearchRequest, multi.Plan, error)
}

type enginePinger interface {
	HealthCheck(ctx context.Context) error
}

// Client is the maktaba SDK entry point.
type Client struct {
	store     db.Store
	engine    enginePinger
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. The provided context is used for the cache
// readiness check when a Redis cache is configured.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{cacheBackend: config.CacheNone}
	for _, o := range opts {
		o.apply(cc)
	}

	if cc.engineURL == "" {
		return nil, errors.New("maktaba: engine URL required (use WithEngine)")
	}

	cfg, err := buildConfig(cc)
	if err != nil {
		return nil, fmt.Errorf("maktaba: %w", err)
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cc)
	if err != nil {
		return nil, err
	}
	if store != nil {
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("maktaba: cache not ready: %w", err)
		}
	}

	return wireClient(cfg, cc, store, obs)
}

// buildConfig maps options onto the server configuration so the SDK and
// `maktaba serve` share defaults and validation.
func buildConfig(cc *clientConfig) (config.Config, error) {
	kinds := config.DefaultKinds()
	for name, k := range cc.kinds {
		kinds[name] = k
	}

	cfg := config.Config{
		Engine: config.EngineConfig{
			URL:       cc.engineURL,
			APIKey:    cc.engineKey,
			TimeoutMs: int(cc.engineTimeout / time.Millisecond),
		},
		Cache: config.CacheConfig{
			Backend:  cc.cacheBackend,
			Addrs:    cc.redisAddrs,
			Password: cc.redisPass,
			TTLSec:   int(cc.cacheTTL / time.Second),
			Size:     cc.cacheSize,
		},
		Embedding: config.EmbeddingConfig{
			QueryInstruction: cc.instruction,
			VectorField:      cc.vectorField,
			K:                cc.vectorK,
		},
		Search: config.SearchConfig{
			Batched:     cc.batched,
			SortAliases: cc.sortAliases,
			Kinds:       kinds,
		},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func createStore(cc *clientConfig) (db.Store, error) {
	switch cc.cacheBackend {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		s, err := memory.NewStore(cc.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("maktaba: create memory cache: %w", err)
		}
		return s, nil
	case config.CacheRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cc.redisAddrs,
			Password: cc.redisPass,
		})
		if err != nil {
			return nil, fmt.Errorf("maktaba: create redis cache: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("maktaba: unknown cache backend %q", cc.cacheBackend)
	}
}

func wireClient(cfg config.Config, cc *clientConfig, store db.Store, obs *observer) (*Client, error) {
	cols, err := cfg.Collections()
	if err != nil {
		return nil, fmt.Errorf("maktaba: build collections: %w", err)
	}

	engineClient := typesense.New(typesense.Config{
		BaseURL: cfg.Engine.URL,
		APIKey:  cfg.Engine.APIKey,
		Timeout: cfg.Engine.Timeout(),
	})

	// A nil *memory.Store in an interface is not a nil interface.
	var (
		cacheKV     db.KVStore
		cachePinger healthuc.CachePinger
	)
	if store != nil {
		cacheKV, cachePinger = store, store
	}

	logger := zap.NewNop()
	gateway := searchrepo.New(engineClient, cacheKV, searchrepo.Options{
		Prefix: cfg.Cache.KeyPrefix,
		TTL:    cfg.Cache.TTL(),
	}, logger)

	var (
		queryEmbedder   searchuc.Embedder
		embeddingHealth healthuc.Checker
	)
	if cc.embedder != nil {
		var withCache func(domain.Embedder) domain.Embedder
		if cacheKV != nil {
			withCache = func(inner domain.Embedder) domain.Embedder {
				return embcache.New(inner, cacheKV, embcache.Options{
					Prefix: cfg.Cache.KeyPrefix,
					Model:  cfg.Embedding.Model,
					TTL:    cfg.Cache.EmbeddingTTL(),
				}, metrics.EmbeddingCacheTotal, logger)
			}
		}
		emb := embeddinguc.Chain(&embedderAdapter{inner: cc.embedder},
			cfg.Embedding.QueryInstruction, withCache, "sdk", cfg.Embedding.Model, logger)
		queryEmbedder, embeddingHealth = emb, emb
	}

	searchSvc := searchuc.New(gateway, cols, queryEmbedder, searchuc.Options{
		SortAliases: cfg.Search.SortAliases,
		Batched:     cfg.Search.Batched,
		Vector:      cfg.Embedding.Vector(),
	}, logger)

	return &Client{
		store:     store,
		engine:    engineClient,
		searchSvc: searchSvc,
		healthSvc: healthuc.New(engineClient, cachePinger, nil, embeddingHealth),
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks engine connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", "", start, err) }()

	if err = c.engine.HealthCheck(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:   r.Embedding,
		TotalTokens: r.TotalTokens,
	}, nil
}
