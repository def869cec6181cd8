// Package pinecone queries a Pinecone serverless index over its data-plane REST API.
package pinecone

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/seeker/internal/domain/search/request"
	"github.com/kailas-cloud/seeker/internal/domain/search/result"
	"github.com/kailas-cloud/seeker/internal/metrics"
	"github.com/kailas-cloud/seeker/internal/transport/httpjson"
)

// Name identifies the backend in errors, metrics and responses.
const Name = "pinecone"

const apiVersion = "2025-01"

// Config holds Pinecone index settings. Host is the index host from the console,
// with or without scheme.
type Config struct {
	Host      string
	APIKey    string
	Namespace string
	Timeout   time.Duration
}

// Index is a vector index backed by a Pinecone index.
type Index struct {
	host      string
	namespace string
	http      *httpjson.Client
}

// New creates a Pinecone index client.
func New(cfg Config) *Index {
	host := strings.TrimSuffix(cfg.Host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return &Index{
		host:      host,
		namespace: cfg.Namespace,
		http: httpjson.New(Name, cfg.Timeout, map[string]string{
			"Api-Key":                cfg.APIKey,
			"X-Pinecone-API-Version": apiVersion,
		}),
	}
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	Namespace       string    `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []match `json:"matches"`
}

type match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// Search queries the index. Pinecone has no server-side score threshold,
// so matches below MinScore are dropped here.
func (i *Index) Search(ctx context.Context, q request.Vector) ([]result.Hit, error) {
	body := queryRequest{
		Vector:          q.Values,
		TopK:            q.TopK,
		IncludeMetadata: true,
		Namespace:       i.namespace,
	}

	start := time.Now()
	var resp queryResponse
	err := i.http.Post(ctx, i.host+"/query", body, &resp)
	metrics.ObserveProvider(Name, metrics.OpRetrieve, start, err)
	if err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}

	hits := make([]result.Hit, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m.Score < q.MinScore {
			continue
		}
		hits = append(hits, result.Hit{ID: m.ID, Score: m.Score, Payload: m.Metadata})
	}
	return hits, nil
}

// HealthCheck calls describe_index_stats.
func (i *Index) HealthCheck(ctx context.Context) error {
	start := time.Now()
	err := i.http.Post(ctx, i.host+"/describe_index_stats", struct{}{}, nil)
	metrics.ObserveProvider(Name, metrics.OpHealth, start, err)
	if err != nil {
		return fmt.Errorf("pinecone stats: %w", err)
	}
	return nil
}
