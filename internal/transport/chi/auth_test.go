package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuthMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		keys     []string
		path     string
		header   string
		wantCode int
	}{
		{"no keys passes through", nil, "/v1/search/books", "", http.StatusOK},
		{"empty string keys pass through", []string{"", ""}, "/v1/search/books", "", http.StatusOK},
		{"missing header", []string{"secret"}, "/v1/search/books", "", http.StatusUnauthorized},
		{"basic scheme", []string{"secret"}, "/v1/search/books", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"wrong key", []string{"secret"}, "/v1/search/books", "Bearer wrong-key", http.StatusUnauthorized},
		{"key prefix is not enough", []string{"secret"}, "/v1/search/books", "Bearer secre", http.StatusUnauthorized},
		{"valid key", []string{"secret"}, "/v1/search/books", "Bearer secret", http.StatusOK},
		{"second of two keys", []string{"key1", "key2"}, "/v1/facets/genres", "Bearer key2", http.StatusOK},
		{"health exempt", []string{"secret"}, "/health", "", http.StatusOK},
		{"metrics exempt", []string{"secret"}, "/metrics", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := BearerAuthMiddleware(tt.keys)(okHandler())

			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusUnauthorized {
				return
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Error.Code != CodeUnauthorized {
				t.Errorf("error code: got %q, want %q", resp.Error.Code, CodeUnauthorized)
			}
		})
	}
}
