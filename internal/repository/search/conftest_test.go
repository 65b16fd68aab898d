package search

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/maktaba-labs/maktaba/internal/db/memory"
	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/search/multi"
	"github.com/maktaba-labs/maktaba/internal/domain/search/result"
)

// mockEngine implements engine.Searcher for tests.
type mockEngine struct {
	searchFn      func(ctx context.Context, q multi.Query) (result.Raw, error)
	multiSearchFn func(ctx context.Context, qs []multi.Query) ([]result.Raw, error)
	calls         int
}

func (m *mockEngine) Search(ctx context.Context, q multi.Query) (result.Raw, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return result.Raw{}, nil
}

func (m *mockEngine) MultiSearch(ctx context.Context, qs []multi.Query) ([]result.Raw, error) {
	m.calls++
	if m.multiSearchFn != nil {
		return m.multiSearchFn(ctx, qs)
	}
	return make([]result.Raw, len(qs)), nil
}

func newTestRepo(t *testing.T, ttl time.Duration) (*Repo, *mockEngine) {
	t.Helper()
	cache, err := memory.NewStore(64)
	if err != nil {
		t.Fatalf("memory.NewStore: %v", err)
	}
	me := &mockEngine{}
	return New(me, cache, Options{Prefix: "test:", TTL: ttl}, zap.NewNop()), me
}

func bookHits(ids ...string) []result.Hit {
	hits := make([]result.Hit, len(ids))
	for i, id := range ids {
		hits[i] = result.NewHit(domain.Document{"id": id, "primaryName": "Kitab " + id}, int64(100-i))
	}
	return hits
}
