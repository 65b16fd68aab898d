package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownCollection signals a search kind that is not configured.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrInvalidFacetValue is reserved for malformed facet ids. Ids are
	// currently opaque and passed through.
	ErrInvalidFacetValue = errors.New("invalid facet value")
	// ErrEngineUnavailable signals a failed or non-success engine call.
	ErrEngineUnavailable = errors.New("search engine unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)
