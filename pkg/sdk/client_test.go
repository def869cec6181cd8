package seeker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubSynth struct {
	answer string
	err    error
	user   string
}

func (s *stubSynth) Complete(_ context.Context, _, user string) (string, error) {
	s.user = user
	return s.answer, s.err
}

func pipelineServer(t *testing.T, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"id":"c1","combined_score":0.8,"content":"Light, Life and Love",
			 "metadata":{"title":"Mastery of Life","type":"pdf","pdf_url":"https://x/m.pdf","page":4}},
			{"id":"c2","score":0.6,"text":"second passage","metadata":{"type":"podcast"}}
		]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_MissingOpenAIKey(t *testing.T) {
	_, err := New(context.Background(), WithQdrant("http://qdrant", "key", "c"))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestNew_MissingBackendSetting(t *testing.T) {
	_, err := New(context.Background(), WithOpenAI("sk-test", ""), WithPinecone("", "key", ""))
	if !errors.Is(err, ErrConfiguration) || !strings.Contains(err.Error(), "PINECONE_HOST") {
		t.Fatalf("expected missing PINECONE_HOST, got %v", err)
	}
}

func TestNew_CustomProvidersNeedNoKey(t *testing.T) {
	c, err := New(context.Background(),
		WithPipeline("http://pipeline.local/search", ""),
		WithSynthesizer(&stubSynth{answer: "ok"}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Close()
}

func TestSearch_Pipeline(t *testing.T) {
	var body map[string]any
	srv := pipelineServer(t, &body)
	synth := &stubSynth{answer: "The rose unfolds."}
	reg := prometheus.NewRegistry()

	c, err := New(context.Background(),
		WithPipeline(srv.URL, ""),
		WithSynthesizer(synth),
		WithPrometheus(reg),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	resp, err := c.Search(context.Background(), "  the rose  ", SearchOptions{TopK: 3, UseGraph: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if body["query"] != "the rose" || body["match_count"] != float64(3) || body["use_graphrag"] != true {
		t.Errorf("pipeline request = %v", body)
	}
	if resp.Answer != "The rose unfolds." || resp.Fallback {
		t.Errorf("answer = %q fallback=%v", resp.Answer, resp.Fallback)
	}
	if resp.Backend != "pipeline" || resp.Engine != "RAG Pipeline" {
		t.Errorf("backend/engine = %q/%q", resp.Backend, resp.Engine)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("sources = %d", len(resp.Sources))
	}
	first := resp.Sources[0]
	if first.Title != "Mastery of Life" || first.Score != 0.8 || first.Content != "Light, Life and Love" {
		t.Errorf("first source = %+v", first)
	}
	if !first.Link.Openable || first.Link.URL != "https://x/m.pdf#page=4" {
		t.Errorf("first link = %+v", first.Link)
	}
	if resp.Sources[1].Link.Openable || resp.Sources[1].Link.Label != "Podcast" {
		t.Errorf("second link = %+v", resp.Sources[1].Link)
	}
	if !strings.Contains(synth.user, "Light, Life and Love") {
		t.Error("answer prompt should carry the top passage")
	}

	ops, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(ops) == 0 {
		t.Error("no sdk metrics registered")
	}
}

func TestSearch_FallbackCounted(t *testing.T) {
	var body map[string]any
	srv := pipelineServer(t, &body)
	reg := prometheus.NewRegistry()

	c, err := New(context.Background(),
		WithPipeline(srv.URL, ""),
		WithSynthesizer(&stubSynth{err: errors.New("model down")}),
		WithPrometheus(reg),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	resp, err := c.Search(context.Background(), "rose", SearchOptions{})
	if err != nil {
		t.Fatalf("synthesis failure must not fail the search: %v", err)
	}
	if !resp.Fallback || resp.Answer == "" {
		t.Errorf("expected fallback answer, got %q", resp.Answer)
	}
	if got := testutil.ToFloat64(c.obs.metrics.fallbacks.WithLabelValues("pipeline")); got != 1 {
		t.Errorf("fallback counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("search", "pipeline", "ok")); got != 1 {
		t.Errorf("search ops = %v, want 1", got)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	c, err := New(context.Background(),
		WithPipeline("http://unused", ""),
		WithSynthesizer(&stubSynth{}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Search(context.Background(), "   ", SearchOptions{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSearch_BackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"detail":"index warming up"}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), WithPipeline(srv.URL, ""), WithSynthesizer(&stubSynth{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Search(context.Background(), "rose", SearchOptions{})
	if !errors.Is(err, ErrBackend) || !strings.Contains(err.Error(), "index warming up") {
		t.Fatalf("expected backend error with detail, got %v", err)
	}
}

func TestResolveLink(t *testing.T) {
	c, err := New(context.Background(), WithPipeline("http://unused", ""), WithSynthesizer(&stubSynth{}),
		WithDocumentBase("https://library.example.org/docs"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := c.ResolveLink(map[string]any{"type": "pdf", "file_path": "digest.pdf", "page_start": float64(2)})
	want := Link{URL: "https://library.example.org/docs/digest.pdf#page=2", Label: "PDF", Kind: "document", Openable: true}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSubtitlesToVTT(t *testing.T) {
	out := SubtitlesToVTT("1\n00:00:01,000 --> 00:00:02,000\nHi\n")
	if !strings.HasPrefix(out, "WEBVTT") || !strings.Contains(out, "00:00:01.000") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestHealth_NoChecks(t *testing.T) {
	c, err := New(context.Background(), WithPipeline("http://unused", ""), WithSynthesizer(&stubSynth{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := c.Health(context.Background())
	if !h.Healthy() || len(h.Checks) != 0 || h.Backend != "pipeline" {
		t.Errorf("health = %+v", h)
	}
}

func TestHealthStatus_Failing(t *testing.T) {
	h := HealthStatus{Status: "degraded", Checks: map[string]string{"retriever": "error", "llm": "ok"}}
	if h.Healthy() {
		t.Error("degraded status must not be healthy")
	}
	if got := h.Failing(); len(got) != 1 || got[0] != "retriever" {
		t.Errorf("Failing() = %v", got)
	}
}

func TestEmbedderAdapter(t *testing.T) {
	a := &embedderAdapter{inner: embedFunc(func(context.Context, string) (EmbeddingResult, error) {
		return EmbeddingResult{Embedding: []float32{1, 2}, TotalTokens: 3}, nil
	})}
	res, err := a.Embed(context.Background(), "x")
	if err != nil || len(res.Embedding) != 2 || res.TotalTokens != 3 {
		t.Errorf("res = %+v err = %v", res, err)
	}
}

type embedFunc func(context.Context, string) (EmbeddingResult, error)

func (f embedFunc) Embed(ctx context.Context, text string) (EmbeddingResult, error) { return f(ctx, text) }

func TestWithTimeout_RoundsUp(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 0},
		{-time.Second, 0},
		{500 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{30 * time.Second, 30},
	}
	for _, tc := range tests {
		var cc clientConfig
		WithTimeout(tc.in).apply(&cc)
		if cc.cfg.Providers.TimeoutSec != tc.want {
			t.Errorf("WithTimeout(%v) = %ds, want %ds", tc.in, cc.cfg.Providers.TimeoutSec, tc.want)
		}
	}
}
