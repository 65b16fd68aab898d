package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maktaba-labs/maktaba/internal/config"
	"github.com/maktaba-labs/maktaba/internal/db"
	"github.com/maktaba-labs/maktaba/internal/db/memory"
	dbRedis "github.com/maktaba-labs/maktaba/internal/db/redis"
	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/engine/typesense"
	logpkg "github.com/maktaba-labs/maktaba/internal/logger"
	"github.com/maktaba-labs/maktaba/internal/metrics"
	"github.com/maktaba-labs/maktaba/internal/repository/catalog"
	"github.com/maktaba-labs/maktaba/internal/repository/embcache"
	searchrepo "github.com/maktaba-labs/maktaba/internal/repository/search"
	chiTransport "github.com/maktaba-labs/maktaba/internal/transport/chi"
	openaiEmb "github.com/maktaba-labs/maktaba/internal/transport/openai"
	embeddinguc "github.com/maktaba-labs/maktaba/internal/usecase/embedding"
	healthuc "github.com/maktaba-labs/maktaba/internal/usecase/health"
	searchuc "github.com/maktaba-labs/maktaba/internal/usecase/search"
	"github.com/maktaba-labs/maktaba/internal/version"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := logpkg.NewLogger(root.env, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			return runServe(cmd.Context(), cfg, root.env, logger)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config, env string, logger *zap.Logger) error {
	logger.Info("Starting maktaba API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("engine_url", cfg.Engine.URL),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEngineMetrics()
	metrics.RegisterEmbeddingMetrics()

	cols, err := cfg.Collections()
	if err != nil {
		return fmt.Errorf("build collections: %w", err)
	}

	engineClient := typesense.New(typesense.Config{
		BaseURL: cfg.Engine.URL,
		APIKey:  cfg.Engine.APIKey,
		Timeout: cfg.Engine.Timeout(),
	})

	store, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	// Pass nil interfaces (not typed nil pointers) for disabled components.
	// (*catalog.Repo)(nil) wrapped in an interface != nil.
	var (
		cacheKV     db.KVStore
		cachePinger healthuc.CachePinger
	)
	if store != nil {
		cacheKV, cachePinger = store, store
	}

	gateway := searchrepo.New(engineClient, cacheKV, searchrepo.Options{
		Prefix: cfg.Cache.KeyPrefix,
		TTL:    cfg.Cache.TTL(),
	}, logger)

	var (
		queryEmbedder   searchuc.Embedder
		embeddingHealth healthuc.Checker
	)
	if cfg.Embedding.Enabled() {
		emb := buildEmbedder(cfg, cacheKV, logger)
		queryEmbedder, embeddingHealth = emb, emb
		logger.Info("Query embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	} else {
		logger.Info("No embedding provider configured, hybrid search falls back to keyword")
	}

	var (
		facetCatalog  chiTransport.Catalog
		catalogHealth healthuc.Checker
	)
	if cfg.Database.URL != "" {
		sqlDB, err := catalog.Open(ctx, catalog.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		})
		if err != nil {
			return err
		}
		defer func() { _ = sqlDB.Close() }()
		repo := catalog.New(sqlDB)
		facetCatalog, catalogHealth = repo, repo
		logger.Info("Connected to facet catalog")
	}

	searchSvc := searchuc.New(gateway, cols, queryEmbedder, searchuc.Options{
		SortAliases: cfg.Search.SortAliases,
		Batched:     cfg.Search.Batched,
		Vector:      cfg.Embedding.Vector(),
	}, logger)
	healthSvc := healthuc.New(engineClient, cachePinger, catalogHealth, embeddingHealth)

	server := chiTransport.NewServer(searchSvc, facetCatalog, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Handler())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr), zap.Strings("kinds", kindNames(searchSvc)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-sigCtx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// openCache creates the configured cache store. It returns nil for the none backend.
func openCache(ctx context.Context, cfg config.CacheConfig) (db.Store, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		s, err := memory.NewStore(cfg.Size)
		if err != nil {
			return nil, fmt.Errorf("create memory cache: %w", err)
		}
		return s, nil
	case config.CacheRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		if err := s.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			s.Close()
			return nil, fmt.Errorf("redis cache not ready: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// buildEmbedder assembles the query chain: Instrumented -> Cached -> Instruction -> OpenAI.
func buildEmbedder(cfg config.Config, cache db.KVStore, logger *zap.Logger) *embeddinguc.InstrumentedEmbedder {
	ec := cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Timeout:    time.Duration(ec.TimeoutMs) * time.Millisecond,
		Logger:     logger,
	})

	var withCache func(domain.Embedder) domain.Embedder
	if cache != nil {
		withCache = func(inner domain.Embedder) domain.Embedder {
			return embcache.New(inner, cache, embcache.Options{
				Prefix: cfg.Cache.KeyPrefix,
				Model:  ec.Model,
				TTL:    cfg.Cache.EmbeddingTTL(),
			}, metrics.EmbeddingCacheTotal, logger)
		}
	}

	return embeddinguc.Chain(base, ec.QueryInstruction, withCache, ec.Provider, ec.Model, logger)
}

func kindNames(svc *searchuc.Service) []string {
	kinds := svc.Kinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
