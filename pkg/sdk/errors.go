package seeker

import "github.com/kailas-cloud/seeker/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrConfiguration          = domain.ErrConfiguration
	ErrValidation             = domain.ErrValidation
	ErrBackend                = domain.ErrBackend
	ErrSynthesis              = domain.ErrSynthesis
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
