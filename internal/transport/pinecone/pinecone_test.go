package pinecone

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

func TestIndex_Search_PostFiltersThreshold(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Api-Key") != "pk" {
			t.Errorf("Api-Key = %q", r.Header.Get("Api-Key"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["topK"] != float64(3) || body["includeMetadata"] != true || body["namespace"] != "teachings" {
			t.Errorf("unexpected body: %v", body)
		}
		_, _ = w.Write([]byte(`{"matches":[
			{"id":"a","score":0.92,"metadata":{"title":"A"}},
			{"id":"b","score":0.55,"metadata":{"title":"B"}},
			{"id":"c","score":0.31,"metadata":{"title":"C"}}
		],"namespace":"teachings"}`))
	}))
	defer server.Close()

	idx := New(Config{Host: server.URL, APIKey: "pk", Namespace: "teachings"})
	hits, err := idx.Search(context.Background(), request.Vector{Values: []float32{1, 0}, TopK: 3, MinScore: 0.5})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits above threshold, got %d", len(hits))
	}
	if hits[0].ID != "a" || hits[1].ID != "b" {
		t.Errorf("unexpected order: %+v", hits)
	}
	if hits[0].Payload["title"] != "A" {
		t.Errorf("payload = %v", hits[0].Payload)
	}
}

func TestIndex_Search_OmitsEmptyNamespace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["namespace"]; ok {
			t.Error("namespace must be omitted when empty")
		}
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}))
	defer server.Close()

	hits, err := New(Config{Host: server.URL, APIKey: "pk"}).
		Search(context.Background(), request.Vector{Values: []float32{1}, TopK: 1})
	if err != nil || len(hits) != 0 {
		t.Fatalf("hits=%v err=%v", hits, err)
	}
}

func TestIndex_SearchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":3,"message":"Vector dimension 2 does not match the dimension of the index 1536","details":[]}`))
	}))
	defer server.Close()

	_, err := New(Config{Host: server.URL, APIKey: "pk"}).
		Search(context.Background(), request.Vector{Values: []float32{1, 2}, TopK: 1})
	var be *domain.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if be.Backend != Name || be.Status != 400 {
		t.Errorf("unexpected error: %+v", be)
	}
	if be.Detail != "Vector dimension 2 does not match the dimension of the index 1536" {
		t.Errorf("Detail = %q", be.Detail)
	}
}

func TestNew_AddsScheme(t *testing.T) {
	idx := New(Config{Host: "idx-abc.svc.us-east1.pinecone.io/"})
	if idx.host != "https://idx-abc.svc.us-east1.pinecone.io" {
		t.Errorf("host = %q", idx.host)
	}
}

func TestIndex_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/describe_index_stats" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"dimension":1536,"totalVectorCount":10}`))
	}))
	defer server.Close()

	if err := New(Config{Host: server.URL, APIKey: "pk"}).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck error: %v", err)
	}
}
