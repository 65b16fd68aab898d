package search

import (
	"context"

	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/search/multi"
	"github.com/maktaba-labs/maktaba/internal/domain/search/result"
)

// Engine runs compiled queries against the search engine.
type Engine interface {
	Search(ctx context.Context, q multi.Query) (result.Raw, error)
	MultiSearch(ctx context.Context, qs []multi.Query) ([]result.Raw, error)
}

// Embedder vectorizes query text for hybrid search.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
