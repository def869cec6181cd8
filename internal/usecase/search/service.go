package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/seeker/internal/domain/search/request"
	"github.com/kailas-cloud/seeker/internal/domain/search/result"
	"github.com/kailas-cloud/seeker/internal/logger"
	"github.com/kailas-cloud/seeker/internal/metrics"
)

// DefaultContextResults is how many top results feed the answer.
const DefaultContextResults = 5

var engineLabels = map[string]string{
	"qdrant":   "Qdrant Vector Search",
	"pipeline": "RAG Pipeline",
	"pinecone": "Pinecone",
	"redis":    "Redis Vector Search",
}

// EngineLabel returns the human-readable engine name reported to clients.
func EngineLabel(backend string) string {
	if l, ok := engineLabels[backend]; ok {
		return l
	}
	return backend
}

// Response is one answered search.
type Response struct {
	Answer         string
	Results        []result.Result
	Query          string
	TopK           int
	MatchThreshold float64
	Backend        string
	Engine         string
	Timestamp      time.Time
	Took           time.Duration
	// Fallback is set when the answer is the fixed fallback text.
	Fallback bool
}

// Config tunes answer synthesis.
type Config struct {
	Persona        string
	ContextResults int
	FallbackAnswer string
}

// Service retrieves sources and writes an answer from them.
type Service struct {
	retriever Retriever
	synth     Synthesizer
	cfg       Config
	now       func() time.Time
}

// New creates a search service.
func New(retriever Retriever, synth Synthesizer, cfg Config) *Service {
	if cfg.ContextResults <= 0 {
		cfg.ContextResults = DefaultContextResults
	}
	if cfg.FallbackAnswer == "" {
		cfg.FallbackAnswer = FallbackAnswer
	}
	return &Service{retriever: retriever, synth: synth, cfg: cfg, now: time.Now}
}

// Backend returns the retriever name.
func (s *Service) Backend() string { return s.retriever.Name() }

// Search retrieves, normalizes and answers. Retrieval errors fail the request;
// synthesis errors degrade to the fallback answer.
func (s *Service) Search(ctx context.Context, req *request.Request) (Response, error) {
	start := s.now()
	backend := s.retriever.Name()
	log := logger.FromContext(ctx).With(zap.String("backend", backend), logger.Query(req.Query()))

	hits, err := s.retriever.Retrieve(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve: %w", err)
	}
	results := result.NormalizeAll(hits)
	metrics.SourcesReturned.WithLabelValues(backend).Observe(float64(len(results)))

	answer, fallback := s.answer(ctx, log, req.Query(), results)

	log.Debug("search answered",
		zap.Int("results", len(results)),
		zap.Bool("fallback", fallback),
	)

	return Response{
		Answer:         answer,
		Results:        results,
		Query:          req.Query(),
		TopK:           req.TopK(),
		MatchThreshold: req.MatchThreshold(),
		Backend:        backend,
		Engine:         EngineLabel(backend),
		Timestamp:      start.UTC(),
		Took:           s.now().Sub(start),
		Fallback:       fallback,
	}, nil
}

func (s *Service) answer(
	ctx context.Context, log *zap.Logger, query string, results []result.Result,
) (string, bool) {
	prompt := userPrompt(query, buildContext(results, s.cfg.ContextResults))

	text, err := s.synth.Complete(ctx, s.cfg.Persona, prompt)
	switch {
	case err != nil:
		if errors.Is(err, context.Canceled) {
			log.Info("synthesis canceled", zap.Error(err))
		} else {
			log.Warn("synthesis failed, using fallback answer", zap.Error(err))
		}
		metrics.SynthesisFallbacksTotal.WithLabelValues("error").Inc()
		return s.cfg.FallbackAnswer, true
	case strings.TrimSpace(text) == "":
		log.Warn("synthesis returned empty answer, using fallback")
		metrics.SynthesisFallbacksTotal.WithLabelValues("empty").Inc()
		return s.cfg.FallbackAnswer, true
	}
	return text, false
}

// Unconfigured answers every search with the configuration error found at startup.
type Unconfigured struct {
	backend string
	err     error
}

// NewUnconfigured creates a searcher that never reaches the network.
func NewUnconfigured(backend string, err error) *Unconfigured {
	return &Unconfigured{backend: backend, err: err}
}

// Backend returns the configured backend kind.
func (u *Unconfigured) Backend() string { return u.backend }

// Search returns the stored configuration error.
func (u *Unconfigured) Search(context.Context, *request.Request) (Response, error) {
	return Response{}, u.err
}

// HealthCheck always fails with the stored configuration error, so /health reports
// the gateway as down while searches cannot succeed.
func (u *Unconfigured) HealthCheck(context.Context) error { return u.err }
