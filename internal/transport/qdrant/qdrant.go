// Package qdrant searches a Qdrant collection over its REST API.
package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kailas-cloud/seeker/internal/domain/search/request"
	"github.com/kailas-cloud/seeker/internal/domain/search/result"
	"github.com/kailas-cloud/seeker/internal/metrics"
	"github.com/kailas-cloud/seeker/internal/transport/httpjson"
)

// Name identifies the backend in errors, metrics and responses.
const Name = "qdrant"

// Config holds Qdrant connection settings.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Index is a vector index backed by one Qdrant collection.
type Index struct {
	baseURL    string
	collection string
	http       *httpjson.Client
}

// New creates a Qdrant index client.
func New(cfg Config) *Index {
	return &Index{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		collection: cfg.Collection,
		http:       httpjson.New(Name, cfg.Timeout, map[string]string{"api-key": cfg.APIKey}),
	}
}

type searchRequest struct {
	Vector         []float32 `json:"vector"`
	Limit          int       `json:"limit"`
	ScoreThreshold float64   `json:"score_threshold"`
	WithPayload    bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []point `json:"result"`
}

type point struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

// Search runs a nearest-neighbour search. Qdrant applies the score threshold itself.
func (i *Index) Search(ctx context.Context, q request.Vector) ([]result.Hit, error) {
	body := searchRequest{
		Vector:         q.Values,
		Limit:          q.TopK,
		ScoreThreshold: q.MinScore,
		WithPayload:    true,
	}

	start := time.Now()
	var resp searchResponse
	err := i.http.Post(ctx, i.collectionURL()+"/points/search", body, &resp)
	metrics.ObserveProvider(Name, metrics.OpRetrieve, start, err)
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	hits := make([]result.Hit, 0, len(resp.Result))
	for _, p := range resp.Result {
		hits = append(hits, result.Hit{
			ID:      pointID(p.ID),
			Score:   p.Score,
			Payload: p.Payload,
		})
	}
	return hits, nil
}

// HealthCheck verifies the collection exists.
func (i *Index) HealthCheck(ctx context.Context) error {
	start := time.Now()
	err := i.http.Get(ctx, i.collectionURL(), nil)
	metrics.ObserveProvider(Name, metrics.OpHealth, start, err)
	if err != nil {
		return fmt.Errorf("qdrant collection: %w", err)
	}
	return nil
}

func (i *Index) collectionURL() string {
	return i.baseURL + "/collections/" + url.PathEscape(i.collection)
}

// pointID renders numeric and UUID point ids alike.
func pointID(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
