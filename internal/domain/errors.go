package domain

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrConfiguration signals a missing or invalid deployment setting.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation signals a malformed search request.
	ErrValidation = errors.New("validation error")
	// ErrBackend signals a retrieval provider failure or malformed payload.
	ErrBackend = errors.New("backend error")
	// ErrSynthesis signals a language model completion failure.
	ErrSynthesis = errors.New("synthesis error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// ConfigurationError names the environment variable (or setting) that is missing.
type ConfigurationError struct {
	Variable string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return e.Variable + " " + e.Reason
	}
	return e.Variable + " environment variable is not set"
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewMissingVariable creates a ConfigurationError for an unset variable.
func NewMissingVariable(name string) error {
	return &ConfigurationError{Variable: name}
}

// BackendError carries the retrieval provider's own diagnostics.
type BackendError struct {
	Backend string
	Status  int
	Detail  string
}

func (e *BackendError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s search failed: %s", e.Backend, e.Detail)
	case e.Status > 0:
		return fmt.Sprintf("%s search failed: HTTP %s", e.Backend, strconv.Itoa(e.Status))
	default:
		return e.Backend + " search failed"
	}
}

func (e *BackendError) Unwrap() error { return ErrBackend }
