package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/seeker/internal/domain"
	"github.com/kailas-cloud/seeker/internal/domain/search/request"
)

func mustRequest(t *testing.T, body map[string]any) *request.Request {
	t.Helper()
	req, err := request.FromBody(body)
	if err != nil {
		t.Fatalf("FromBody: %v", err)
	}
	return &req
}

func TestClient_Retrieve_SendsParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer pk" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var body searchRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		want := searchRequest{
			Query: "rosicrucian cosmology", MatchThreshold: 0.4, MatchCount: 8,
			HybridAlpha: 0.7, UseGraphRAG: true, GraphWeight: 0.25, MaxHops: 3,
		}
		if body != want {
			t.Errorf("body = %+v, want %+v", body, want)
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	req := mustRequest(t, map[string]any{
		"query": " rosicrucian cosmology ", "top_k": float64(8), "match_threshold": 0.4,
		"hybrid_alpha": 0.7, "use_graphrag": true, "graph_weight": 0.25, "max_hops": float64(3),
	})
	hits, err := New(Config{URL: server.URL, APIKey: "pk"}).Retrieve(context.Background(), req)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestClient_Retrieve_ListKeys(t *testing.T) {
	for _, key := range listKeys {
		t.Run(key, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					key: []any{
						map[string]any{
							"id":             "c1",
							"content":        "The Master Within",
							"similarity":     0.8,
							"combined_score": 0.86,
							"metadata":       map[string]any{"title": "Digest", "page_start": 4, "content": "shadowed"},
						},
						map[string]any{"chunk_id": float64(17), "score": 0.6, "text": "second"},
						"not an object",
					},
				})
			}))
			defer server.Close()

			hits, err := New(Config{URL: server.URL}).Retrieve(context.Background(), mustRequest(t, map[string]any{"query": "q"}))
			if err != nil {
				t.Fatalf("Retrieve error: %v", err)
			}
			if len(hits) != 2 {
				t.Fatalf("expected 2 hits, got %d", len(hits))
			}
			if hits[0].ID != "c1" || hits[0].Score != 0.86 {
				t.Errorf("hit[0] = %s/%f", hits[0].ID, hits[0].Score)
			}
			if hits[0].Payload["title"] != "Digest" || hits[0].Payload["content"] != "The Master Within" {
				t.Errorf("payload merge wrong: %v", hits[0].Payload)
			}
			if hits[1].ID != "17" || hits[1].Score != 0.6 {
				t.Errorf("hit[1] = %s/%f", hits[1].ID, hits[1].Score)
			}
		})
	}
}

func TestClient_Retrieve_MissingList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer":"no list here"}`))
	}))
	defer server.Close()

	_, err := New(Config{URL: server.URL}).Retrieve(context.Background(), mustRequest(t, map[string]any{"query": "q"}))
	if !errors.Is(err, domain.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}

func TestClient_Retrieve_ProviderDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"match_count must be positive"}`))
	}))
	defer server.Close()

	_, err := New(Config{URL: server.URL}).Retrieve(context.Background(), mustRequest(t, map[string]any{"query": "q"}))
	var be *domain.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if be.Status != 422 || be.Detail != "match_count must be positive" {
		t.Errorf("unexpected error: %+v", be)
	}
}

func TestClient_Retrieve_MetadataKeysDoNotOverwriteItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"id":"chunk-1","score":0.8,"content":"passage",` +
			`"metadata":{"id":"doc-7","score":"bm25:3.1","custom":"x"}}]}`))
	}))
	defer server.Close()

	hits, err := New(Config{URL: server.URL}).Retrieve(context.Background(), mustRequest(t, map[string]any{"query": "q"}))
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	p := hits[0].Payload
	if hits[0].ID != "chunk-1" || p["id"] != "chunk-1" {
		t.Errorf("item id overwritten: hit=%s payload=%v", hits[0].ID, p["id"])
	}
	if p["custom"] != "x" {
		t.Errorf("metadata-only key not lifted: %v", p)
	}
	md, ok := p["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("metadata envelope dropped: %v", p)
	}
	if md["id"] != "doc-7" || md["score"] != "bm25:3.1" {
		t.Errorf("metadata envelope changed: %v", md)
	}
}
