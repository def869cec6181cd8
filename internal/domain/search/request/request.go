package request

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/seeker/internal/domain"
)

// Search parameter limits and defaults.
const (
	// MaxQueryLength is the maximum query length in characters (runes).
	MaxQueryLength        = 4096
	DefaultTopK           = 10
	MaxTopK               = 100
	DefaultMatchThreshold = 0.5
	DefaultHybridAlpha    = 0.5
	DefaultGraphWeight    = 0.3
	DefaultMaxHops        = 2
)

// Graph holds graph-augmented retrieval toggles (pipeline backend only).
type Graph struct {
	Enabled bool
	Weight  float64
	MaxHops int
}

// Params are the optional knobs of a search. Zero values mean "use the default".
type Params struct {
	TopK           int
	MatchThreshold float64
	HybridAlpha    float64
	Graph          Graph
}

// Request is a validated search query.
type Request struct {
	query          string
	topK           int
	matchThreshold float64
	hybridAlpha    float64
	graph          Graph
}

// New validates the query and fills defaults for absent parameters.
func New(query string, p Params) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrValidation, MaxQueryLength)
	}

	topK := p.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	threshold := p.MatchThreshold
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	alpha := p.HybridAlpha
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultHybridAlpha
	}
	g := p.Graph
	if g.Weight <= 0 {
		g.Weight = DefaultGraphWeight
	}
	if g.MaxHops <= 0 {
		g.MaxHops = DefaultMaxHops
	}

	return Request{
		query:          query,
		topK:           topK,
		matchThreshold: threshold,
		hybridAlpha:    alpha,
		graph:          g,
	}, nil
}

// FromBody builds a request from a decoded JSON object. Numeric fields that are
// absent or not numbers fall back to defaults; top_k falls back to similarity_top_k.
func FromBody(body map[string]any) (Request, error) {
	if body == nil {
		return Request{}, fmt.Errorf("%w: body must be a JSON object", domain.ErrValidation)
	}
	query, _ := body["query"].(string)

	topK, ok := intField(body, "top_k")
	if !ok {
		topK, _ = intField(body, "similarity_top_k")
	}
	threshold, _ := floatField(body, "match_threshold")
	alpha, _ := floatField(body, "hybrid_alpha")
	weight, _ := floatField(body, "graph_weight")
	hops, _ := intField(body, "max_hops")
	useGraph, _ := body["use_graphrag"].(bool)

	return New(query, Params{
		TopK:           topK,
		MatchThreshold: threshold,
		HybridAlpha:    alpha,
		Graph:          Graph{Enabled: useGraph, Weight: weight, MaxHops: hops},
	})
}

// Query returns the trimmed search query text.
func (r *Request) Query() string { return r.query }

// TopK returns the number of results to retrieve.
func (r *Request) TopK() int { return r.topK }

// MatchThreshold returns the minimum backend score.
func (r *Request) MatchThreshold() float64 { return r.matchThreshold }

// HybridAlpha returns the dense/sparse mix for hybrid backends.
func (r *Request) HybridAlpha() float64 { return r.hybridAlpha }

// Graph returns the graph-retrieval settings.
func (r *Request) Graph() Graph { return r.graph }

// floatField reads a positive JSON number. Falsy values count as absent.
func floatField(body map[string]any, key string) (float64, bool) {
	var f float64
	switch v := body[key].(type) {
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case int:
		f = float64(v)
	default:
		return 0, false
	}
	if f <= 0 {
		return 0, false
	}
	return f, true
}

// intField reads a positive integer. Values beyond int32 saturate so that callers
// clamp them instead of seeing an overflowed negative.
func intField(body map[string]any, key string) (int, bool) {
	f, ok := floatField(body, key)
	if !ok || f < 1 {
		return 0, false
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int(f), true
}

// Vector is a nearest-neighbour lookup against a vector index.
type Vector struct {
	Values   []float32
	TopK     int
	MinScore float64
}

// VectorQuery derives the index lookup for an embedded query.
func (r *Request) VectorQuery(values []float32) Vector {
	return Vector{Values: values, TopK: r.topK, MinScore: r.matchThreshold}
}
