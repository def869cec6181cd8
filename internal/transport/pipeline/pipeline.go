// Package pipeline calls a remote retrieval pipeline that embeds and ranks on its own.
package pipeline

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/kailas-cloud/seeker/internal/domain"
	"github.com/kailas-cloud/seeker/internal/domain/search/request"
	"github.com/kailas-cloud/seeker/internal/domain/search/result"
	"github.com/kailas-cloud/seeker/internal/metrics"
	"github.com/kailas-cloud/seeker/internal/transport/httpjson"
)

// Name identifies the backend in errors, metrics and responses.
const Name = "pipeline"

// Response keys that may hold the result list, in lookup order.
var listKeys = []string{"results", "sources", "chunks"}

// Config holds pipeline settings.
type Config struct {
	URL     string
	APIKey  string // sent as a bearer token when set
	Timeout time.Duration
}

// Client sends raw queries to the pipeline.
type Client struct {
	url  string
	http *httpjson.Client
}

// New creates a pipeline client.
func New(cfg Config) *Client {
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	return &Client{url: cfg.URL, http: httpjson.New(Name, cfg.Timeout, headers)}
}

type searchRequest struct {
	Query          string  `json:"query"`
	MatchThreshold float64 `json:"match_threshold"`
	MatchCount     int     `json:"match_count"`
	HybridAlpha    float64 `json:"hybrid_alpha"`
	UseGraphRAG    bool    `json:"use_graphrag"`
	GraphWeight    float64 `json:"graph_weight"`
	MaxHops        int     `json:"max_hops"`
}

// Name returns the engine label reported in responses.
func (c *Client) Name() string { return Name }

// Retrieve implements the gateway retriever contract.
func (c *Client) Retrieve(ctx context.Context, req *request.Request) ([]result.Hit, error) {
	g := req.Graph()
	body := searchRequest{
		Query:          req.Query(),
		MatchThreshold: req.MatchThreshold(),
		MatchCount:     req.TopK(),
		HybridAlpha:    req.HybridAlpha(),
		UseGraphRAG:    g.Enabled,
		GraphWeight:    g.Weight,
		MaxHops:        g.MaxHops,
	}

	start := time.Now()
	var resp map[string]any
	if err := c.http.Post(ctx, c.url, body, &resp); err != nil {
		metrics.ObserveProvider(Name, metrics.OpRetrieve, start, err)
		return nil, fmt.Errorf("pipeline search: %w", err)
	}
	hits, err := parseHits(resp)
	metrics.ObserveProvider(Name, metrics.OpRetrieve, start, err)
	if err != nil {
		return nil, fmt.Errorf("pipeline search: %w", err)
	}
	return hits, nil
}

func parseHits(resp map[string]any) ([]result.Hit, error) {
	var items []any
	found := false
	for _, key := range listKeys {
		if list, ok := resp[key].([]any); ok {
			items, found = list, true
			break
		}
	}
	if !found {
		return nil, &domain.BackendError{Backend: Name, Detail: "response has no results, sources or chunks list"}
	}

	hits := make([]result.Hit, 0, len(items))
	for i, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		hits = append(hits, result.Hit{
			ID:      itemID(item, i),
			Score:   itemScore(item),
			Payload: itemPayload(item),
		})
	}
	return hits, nil
}

// itemPayload keeps the item as returned, "metadata" envelope included, and lifts
// metadata keys the item does not carry itself so the normalizer can see them.
func itemPayload(item map[string]any) map[string]any {
	payload := maps.Clone(item)
	md, ok := item["metadata"].(map[string]any)
	if !ok {
		return payload
	}
	for k, v := range md {
		if _, taken := payload[k]; !taken {
			payload[k] = v
		}
	}
	return payload
}

func itemID(item map[string]any, pos int) string {
	for _, key := range []string{"id", "chunk_id", "node_id"} {
		switch v := item[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case fmt.Stringer:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return strconv.Itoa(pos)
}

// itemScore prefers the final ranking score; hybrid and graph pipelines report it as combined_score.
func itemScore(item map[string]any) float64 {
	for _, key := range []string{"combined_score", "score", "similarity", "similarity_score"} {
		if f, ok := number(item[key]); ok {
			return f
		}
	}
	return 0
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
