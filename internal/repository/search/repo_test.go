package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maktaba-labs/maktaba/internal/db"
	"github.com/maktaba-labs/maktaba/internal/domain/search/multi"
	"github.com/maktaba-labs/maktaba/internal/domain/search/result"
	"github.com/maktaba-labs/maktaba/internal/engine"
)

func booksQuery(q string) multi.Query {
	return multi.Query{Collection: "books", Q: q, QueryBy: "primaryName", Page: 1, PerPage: 20}
}

// --- Search ---

func TestSearch_CachesResponse(t *testing.T) {
	repo, me := newTestRepo(t, time.Minute)
	me.searchFn = func(_ context.Context, q multi.Query) (result.Raw, error) {
		return result.Raw{Found: 2, Page: 1, Hits: bookHits("b1", "b2")}, nil
	}

	for range 2 {
		raw, err := repo.Search(context.Background(), booksQuery("tafsir"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if raw.Found != 2 || len(raw.Hits) != 2 {
			t.Fatalf("unexpected raw: %+v", raw)
		}
		if raw.Hits[1].ID() != "b2" || raw.Hits[0].TextMatch() != 100 {
			t.Fatalf("unexpected hits: %+v", raw.Hits)
		}
		if raw.Hits[0].Document()["primaryName"] != "Kitab b1" {
			t.Fatalf("document fields lost: %v", raw.Hits[0].Document())
		}
	}
	if me.calls != 1 {
		t.Errorf("engine calls = %d, want 1", me.calls)
	}
}

func TestSearch_DistinctQueriesMiss(t *testing.T) {
	repo, me := newTestRepo(t, time.Minute)

	_, _ = repo.Search(context.Background(), booksQuery("tafsir"))
	_, _ = repo.Search(context.Background(), booksQuery("hadith"))
	if me.calls != 2 {
		t.Errorf("engine calls = %d, want 2", me.calls)
	}
}

func TestSearch_CacheDisabled(t *testing.T) {
	repo, me := newTestRepo(t, 0)

	_, _ = repo.Search(context.Background(), booksQuery("tafsir"))
	_, _ = repo.Search(context.Background(), booksQuery("tafsir"))
	if me.calls != 2 {
		t.Errorf("engine calls = %d, want 2", me.calls)
	}
}

func TestSearch_NilCache(t *testing.T) {
	me := &mockEngine{}
	repo := New(me, nil, Options{TTL: time.Minute}, nil)

	if _, err := repo.Search(context.Background(), booksQuery("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.calls != 1 {
		t.Errorf("engine calls = %d, want 1", me.calls)
	}
}

func TestSearch_EngineErrorNotCached(t *testing.T) {
	repo, me := newTestRepo(t, time.Minute)
	me.searchFn = func(context.Context, multi.Query) (result.Raw, error) {
		return result.Raw{}, &engine.Error{Op: engine.OpSearch, Status: 503, Err: errors.New("lagging")}
	}

	for range 2 {
		_, err := repo.Search(context.Background(), booksQuery("x"))
		var engErr *engine.Error
		if !errors.As(err, &engErr) || engErr.Status != 503 {
			t.Fatalf("expected engine.Error 503, got %v", err)
		}
	}
	if me.calls != 2 {
		t.Errorf("engine calls = %d, want 2", me.calls)
	}
}

// --- MultiSearch ---

func TestMultiSearch_CachesBatch(t *testing.T) {
	repo, me := newTestRepo(t, time.Minute)
	me.multiSearchFn = func(_ context.Context, qs []multi.Query) ([]result.Raw, error) {
		if len(qs) != 2 {
			t.Errorf("queries = %d", len(qs))
		}
		return []result.Raw{
			{Found: 5, Page: 1, Hits: bookHits("b1")},
			{Found: 1, Page: 1, Hits: bookHits("a1")},
		}, nil
	}
	qs := []multi.Query{booksQuery("x"), {Collection: "authors", Q: "*", FilterBy: "id:[`a1`]"}}

	for range 2 {
		raws, err := repo.MultiSearch(context.Background(), qs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(raws) != 2 || raws[1].Hits[0].ID() != "a1" {
			t.Fatalf("unexpected raws: %+v", raws)
		}
	}
	if me.calls != 1 {
		t.Errorf("engine calls = %d, want 1", me.calls)
	}
}

func TestMultiSearch_Empty(t *testing.T) {
	repo, me := newTestRepo(t, time.Minute)
	raws, err := repo.MultiSearch(context.Background(), nil)
	if err != nil || raws != nil {
		t.Fatalf("MultiSearch(nil) = %v, %v", raws, err)
	}
	if me.calls != 0 {
		t.Errorf("engine calls = %d, want 0", me.calls)
	}
}

// --- cache failures ---

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection refused")}
}

func (failingStore) SetWithTTL(context.Context, string, []byte, time.Duration) error {
	return &db.Error{Op: db.OpSet, Err: errors.New("connection refused")}
}

func TestSearch_CacheErrorsFallThrough(t *testing.T) {
	me := &mockEngine{searchFn: func(context.Context, multi.Query) (result.Raw, error) {
		return result.Raw{Found: 1, Hits: bookHits("b1")}, nil
	}}
	repo := New(me, failingStore{}, Options{TTL: time.Minute}, nil)

	raw, err := repo.Search(context.Background(), booksQuery("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Found != 1 {
		t.Errorf("Found = %d", raw.Found)
	}
}

func TestCacheKey(t *testing.T) {
	repo, _ := newTestRepo(t, time.Minute)
	a, _ := repo.cacheKey([]multi.Query{booksQuery("x")})
	b, _ := repo.cacheKey([]multi.Query{booksQuery("x")})
	c, _ := repo.cacheKey([]multi.Query{booksQuery("y")})
	if a != b {
		t.Error("key must be deterministic")
	}
	if a == c {
		t.Error("different queries must not share a key")
	}
	if a[:len("test:search:")] != "test:search:" {
		t.Errorf("key %q missing prefix", a)
	}
}
