// Package search is the engine gateway used by the search use case.
// It forwards queries to the engine and caches raw responses.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maktaba-labs/maktaba/internal/db"
	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/search/multi"
	"github.com/maktaba-labs/maktaba/internal/domain/search/result"
	"github.com/maktaba-labs/maktaba/internal/engine"
	"github.com/maktaba-labs/maktaba/internal/metrics"
)

const keySegment = "search:"

// Compile-time check: Repo is a drop-in engine.Searcher.
var _ engine.Searcher = (*Repo)(nil)

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configure response caching. A zero TTL disables the cache.
type Options struct {
	Prefix string
	TTL    time.Duration
}

// Repo implements engine.Searcher on top of an engine client.
type Repo struct {
	engine engine.Searcher
	cache  store
	opts   Options
	logger *zap.Logger
}

// New creates a search repository. cache may be nil.
func New(e engine.Searcher, cache store, opts Options, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{engine: e, cache: cache, opts: opts, logger: logger}
}

// Search runs one query, serving it from cache when possible.
func (r *Repo) Search(ctx context.Context, q multi.Query) (result.Raw, error) {
	raws, err := r.cached(ctx, []multi.Query{q}, func() ([]result.Raw, error) {
		raw, err := r.engine.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		return []result.Raw{raw}, nil
	})
	if err != nil {
		return result.Raw{}, fmt.Errorf("search %s: %w", q.Collection, err)
	}
	return raws[0], nil
}

// MultiSearch runs queries in one engine round trip, serving the whole
// batch from cache when possible.
func (r *Repo) MultiSearch(ctx context.Context, qs []multi.Query) ([]result.Raw, error) {
	if len(qs) == 0 {
		return nil, nil
	}
	raws, err := r.cached(ctx, qs, func() ([]result.Raw, error) {
		return r.engine.MultiSearch(ctx, qs)
	})
	if err != nil {
		return nil, fmt.Errorf("multi search: %w", err)
	}
	return raws, nil
}

func (r *Repo) cached(ctx context.Context, qs []multi.Query, fetch func() ([]result.Raw, error)) ([]result.Raw, error) {
	if r.cache == nil || r.opts.TTL <= 0 {
		return fetch()
	}

	key, err := r.cacheKey(qs)
	if err != nil {
		r.logger.Warn("Failed to build search cache key", zap.Error(err))
		return fetch()
	}

	if raws, ok := r.getFromCache(ctx, key, len(qs)); ok {
		metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
		return raws, nil
	}
	metrics.SearchCacheTotal.WithLabelValues("miss").Inc()

	raws, err := fetch()
	if err != nil {
		return nil, err
	}
	r.putToCache(ctx, key, raws)
	return raws, nil
}

func (r *Repo) cacheKey(qs []multi.Query) (string, error) {
	payload, err := json.Marshal(qs)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(payload)
	return r.opts.Prefix + keySegment + hex.EncodeToString(h[:]), nil
}

func (r *Repo) getFromCache(ctx context.Context, key string, n int) ([]result.Raw, bool) {
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("Failed to get cached search", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var entries []rawDTO
	if err := json.Unmarshal(data, &entries); err != nil || len(entries) != n {
		r.logger.Warn("Failed to parse cached search", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	raws := make([]result.Raw, len(entries))
	for i, e := range entries {
		raws[i] = e.toRaw()
	}
	return raws, true
}

func (r *Repo) putToCache(ctx context.Context, key string, raws []result.Raw) {
	entries := make([]rawDTO, len(raws))
	for i, raw := range raws {
		entries[i] = fromRaw(raw)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		r.logger.Warn("Failed to encode search for cache", zap.Error(err))
		return
	}
	if err := r.cache.SetWithTTL(ctx, key, data, r.opts.TTL); err != nil {
		r.logger.Warn("Failed to cache search", zap.String("key", key), zap.Error(err))
	}
}

type hitDTO struct {
	Document  map[string]any `json:"document"`
	TextMatch int64          `json:"text_match,omitempty"`
}

type rawDTO struct {
	Found int      `json:"found"`
	Page  int      `json:"page"`
	Hits  []hitDTO `json:"hits"`
}

func fromRaw(r result.Raw) rawDTO {
	hits := make([]hitDTO, len(r.Hits))
	for i, h := range r.Hits {
		hits[i] = hitDTO{Document: h.Document(), TextMatch: h.TextMatch()}
	}
	return rawDTO{Found: r.Found, Page: r.Page, Hits: hits}
}

func (d rawDTO) toRaw() result.Raw {
	hits := make([]result.Hit, len(d.Hits))
	for i, h := range d.Hits {
		hits[i] = result.NewHit(domain.Document(h.Document), h.TextMatch)
	}
	return result.Raw{Found: d.Found, Page: d.Page, Hits: hits}
}
