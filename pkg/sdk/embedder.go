package maktaba

import "context"

// Embedder converts query text to a vector for hybrid search.
// Without one, hybrid requests are served as keyword searches.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token count.
type EmbeddingResult struct {
	Embedding   []float32
	TotalTokens int
}
