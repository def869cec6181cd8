// Package db defines the vector store contract behind the redis backend.
package db

import (
	"context"
	"errors"
	"time"
)

// ErrIndexNotFound is returned when the FT index named in a query does not exist.
var ErrIndexNotFound = errors.New("db: index not found")

// ErrNotReady is returned when the store does not answer within the readiness window.
var ErrNotReady = errors.New("db: store not ready")

// Command names recorded on Error.
const (
	OpPing   = "PING"
	OpSearch = "FT.SEARCH"
)

// Store is the chunk index facade used by the backend factory.
type Store interface {
	Searcher
	HealthCheck(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// Searcher runs KNN queries against a chunk index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// KNNQuery asks for the K chunks nearest to Vector.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Vector       []float32
	K            int
	ReturnFields []string // empty = every hash field
}

// SearchResult holds the chunks in ascending distance order.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one chunk hash. Score is 1 - cosine distance, never below 0.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// Error records the command and index that failed.
type Error struct {
	Op    string
	Index string
	Err   error
}

func (e *Error) Error() string {
	if e.Index != "" {
		return e.Op + " " + e.Index + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
