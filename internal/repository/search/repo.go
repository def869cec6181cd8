package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/seeker/internal/db"
	"github.com/kailas-cloud/seeker/internal/domain"
	"github.com/kailas-cloud/seeker/internal/domain/search/request"
	"github.com/kailas-cloud/seeker/internal/domain/search/result"
	"github.com/kailas-cloud/seeker/internal/metrics"
)

// Name identifies the backend in errors, metrics and responses.
const Name = "redis"

// payloadField holds an optional JSON object with the full chunk payload.
// Flat hash fields are merged over it.
const payloadField = "payload"

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo is a vector index over a Redis Stack / Valkey FT index of chunk hashes.
type Repo struct {
	store       store
	index       string
	vectorField string
}

// New creates a search repository for one FT index.
func New(s store, index, vectorField string) *Repo {
	return &Repo{store: s, index: index, vectorField: vectorField}
}

// Search runs a KNN query and drops entries below the score threshold.
func (r *Repo) Search(ctx context.Context, q request.Vector) ([]result.Hit, error) {
	start := time.Now()
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:   r.index,
		VectorField: r.vectorField,
		Vector:      q.Values,
		K:           q.TopK,
	})
	metrics.ObserveProvider(Name, metrics.OpRetrieve, start, err)
	if err != nil {
		return nil, backendError(err)
	}
	return r.toHits(sr, q.MinScore), nil
}

func (r *Repo) toHits(sr *db.SearchResult, minScore float64) []result.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		if entry.Score < minScore {
			continue
		}
		hits = append(hits, result.Hit{
			ID:      entry.Key,
			Score:   entry.Score,
			Payload: r.payload(entry.Fields),
		})
	}
	return hits
}

// payload rebuilds a chunk payload from hash fields. The vector blob is never exposed.
func (r *Repo) payload(fields map[string]string) map[string]any {
	p := make(map[string]any, len(fields))
	if raw, ok := fields[payloadField]; ok {
		var nested map[string]any
		if json.Unmarshal([]byte(raw), &nested) == nil {
			for k, v := range nested {
				p[k] = v
			}
		} else {
			p[payloadField] = raw
		}
	}
	for k, v := range fields {
		if k == payloadField || k == r.vectorField {
			continue
		}
		p[k] = v
	}
	return p
}

func backendError(err error) error {
	detail := err.Error()
	var dbErr *db.Error
	if errors.As(err, &dbErr) {
		detail = dbErr.Err.Error()
	}
	if errors.Is(err, db.ErrIndexNotFound) {
		detail = "index not found"
	}
	return fmt.Errorf("redis search: %w", errors.Join(&domain.BackendError{Backend: Name, Detail: detail}, err))
}
