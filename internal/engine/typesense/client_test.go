package typesense

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/maktaba-labs/maktaba/internal/domain/search/multi"
	"github.com/maktaba-labs/maktaba/internal/engine"
)

func bookQuery() multi.Query {
	return multi.Query{
		Collection:              "books",
		Q:                       "Bukhari",
		QueryBy:                 "primaryName,author.name",
		QueryByWeights:          "3,1",
		FilterBy:                "year:[1000..1200] && genreTags:[`g1`]",
		Page:                    2,
		PerPage:                 20,
		PrioritizeTokenPosition: true,
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL + "/", APIKey: "test-key", Timeout: time.Second})
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/collections/books/documents/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-TYPESENSE-API-KEY") != "test-key" {
			t.Errorf("unexpected api key: %q", r.Header.Get("X-TYPESENSE-API-KEY"))
		}
		q := r.URL.Query()
		want := map[string]string{
			"q":                         "Bukhari",
			"query_by":                  "primaryName,author.name",
			"query_by_weights":          "3,1",
			"filter_by":                 "year:[1000..1200] && genreTags:[`g1`]",
			"page":                      "2",
			"per_page":                  "20",
			"prioritize_token_position": "true",
		}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("param %s = %q, want %q", k, q.Get(k), v)
			}
		}
		if q.Has("sort_by") || q.Has("vector_query") {
			t.Error("empty params should be omitted")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"found":41,"page":2,"hits":[
			{"document":{"id":"b1","primaryName":"Sahih"},"text_match":100},
			{"document":{"id":"b2"},"text_match":90}]}`))
	})

	raw, err := c.Search(context.Background(), bookQuery())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if raw.Found != 41 || raw.Page != 2 {
		t.Errorf("Found=%d Page=%d", raw.Found, raw.Page)
	}
	if len(raw.Hits) != 2 || raw.Hits[0].ID() != "b1" || raw.Hits[1].ID() != "b2" {
		t.Fatalf("unexpected hits: %+v", raw.Hits)
	}
	if raw.Hits[0].TextMatch() != 100 {
		t.Errorf("TextMatch = %d", raw.Hits[0].TextMatch())
	}
}

func TestSearch_WithVectorUsesMultiSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/multi_search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"found":1,"page":1,"hits":[{"document":{"id":"b1"}}]}]}`))
	})

	q := bookQuery()
	q.VectorQuery = "embedding:([0.1,0.2], k:100)"
	raw, err := c.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if raw.Found != 1 {
		t.Errorf("Found = %d", raw.Found)
	}
}

func TestSearch_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not found."}`))
	})

	_, err := c.Search(context.Background(), bookQuery())
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		t.Fatalf("expected engine.Error, got %v", err)
	}
	if engErr.Status != http.StatusNotFound || engErr.Op != engine.OpSearch {
		t.Errorf("Status=%d Op=%q", engErr.Status, engErr.Op)
	}
	if !strings.Contains(err.Error(), "Not found.") {
		t.Errorf("error = %q, want engine message", err)
	}
}

func TestSearch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()
	c := New(Config{BaseURL: server.URL})

	_, err := c.Search(context.Background(), bookQuery())
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		t.Fatalf("expected engine.Error, got %v", err)
	}
	if engErr.Status != 0 {
		t.Errorf("Status = %d, want 0 for transport failure", engErr.Status)
	}
}

func TestSearch_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{not json`))
	})

	if _, err := c.Search(context.Background(), bookQuery()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestMultiSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/multi_search" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}

		var req multiSearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if len(req.Searches) != 2 {
			t.Errorf("searches = %d, want 2", len(req.Searches))
			return
		}
		if req.Searches[0].Collection != "books" || !req.Searches[0].PrioritizeTokenPosition {
			t.Errorf("primary = %+v", req.Searches[0])
		}
		if req.Searches[1].Collection != "authors" || req.Searches[1].FilterBy != "id:[`a1`]" {
			t.Errorf("lookup = %+v", req.Searches[1])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"found":10,"page":1,"hits":[{"document":{"id":"b1","author":{"id":"a2"}}}]},
			{"found":1,"page":1,"hits":[{"document":{"id":"a1"}}]}]}`))
	})

	raws, err := c.MultiSearch(context.Background(), []multi.Query{
		bookQuery(),
		{Collection: "authors", Q: "*", FilterBy: "id:[`a1`]", Page: 1, PerPage: 100},
	})
	if err != nil {
		t.Fatalf("MultiSearch failed: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("results = %d", len(raws))
	}
	if raws[0].Found != 10 || raws[1].Hits[0].ID() != "a1" {
		t.Errorf("unexpected results: %+v", raws)
	}
}

func TestMultiSearch_SubResultError(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name: "error result",
			body: `{"results":[
				{"found":0,"hits":[]},
				{"code":404,"error":"Could not find a field named authorId in the schema."}]}`,
			wantStatus: 404,
		},
		{
			name: "result without found",
			body: `{"results":[{"found":0,"hits":[]},{}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.MultiSearch(context.Background(), []multi.Query{bookQuery(), {Collection: "authors", Q: "*"}})
			var engErr *engine.Error
			if !errors.As(err, &engErr) {
				t.Fatalf("expected engine.Error, got %v", err)
			}
			if engErr.Op != engine.OpMultiSearch {
				t.Errorf("Op = %q", engErr.Op)
			}
			if tt.wantStatus != 0 && engErr.Status != 0 && engErr.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", engErr.Status, tt.wantStatus)
			}
			if !strings.Contains(err.Error(), "authors") {
				t.Errorf("error should name the collection: %v", err)
			}
		})
	}
}

func TestMultiSearch_ResultCountMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	if _, err := c.MultiSearch(context.Background(), []multi.Query{bookQuery()}); err == nil {
		t.Fatal("expected error")
	}
}

func TestMultiSearch_Empty(t *testing.T) {
	c := New(Config{BaseURL: "http://unused.invalid"})
	raws, err := c.MultiSearch(context.Background(), nil)
	if err != nil || raws != nil {
		t.Errorf("MultiSearch(nil) = %v, %v", raws, err)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"ok", 200, `{"ok":true}`, false},
		{"not ok", 200, `{"ok":false}`, true},
		{"unavailable", 503, `{"message":"Not Ready or Lagging"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			err := c.HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearch_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, bookQuery())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		body, status, want string
	}{
		{`{"message":"Bad filter"}`, "400 Bad Request", "Bad filter"},
		{"plain failure\n", "500 Internal Server Error", "plain failure"},
		{"", "502 Bad Gateway", "502 Bad Gateway"},
	}
	for _, tt := range tests {
		if got := errorMessage([]byte(tt.body), tt.status); got != tt.want {
			t.Errorf("errorMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
