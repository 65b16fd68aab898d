package domain

// VectorConfig holds hybrid-search vector settings, not exposed to clients.
type VectorConfig struct {
	Model            string
	Dimensions       int
	QueryInstruction string
	// Field is the engine's embedding field used in vector_query.
	Field string
	// K is the number of nearest neighbours the engine blends with keyword hits.
	K int
}

// DefaultVectorConfig returns the defaults used when the embedding section is partial.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:            "text-embedding-3-small",
		Dimensions:       1536,
		QueryInstruction: "",
		Field:            "embedding",
		K:                100,
	}
}
