package maktaba

import (
	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/search/expression"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrUnknownCollection      = domain.ErrUnknownCollection
	ErrEngineUnavailable      = domain.ErrEngineUnavailable
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrMalformedExpression    = expression.ErrMalformedExpression
)
