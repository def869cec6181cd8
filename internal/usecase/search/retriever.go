package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/seeker/internal/domain/search/request"
	"github.com/kailas-cloud/seeker/internal/domain/search/result"
)

// VectorRetriever embeds the query and searches a vector index.
type VectorRetriever struct {
	name  string
	embed Embedder
	index VectorIndex
}

// NewVectorRetriever creates a retriever for an embedding-based backend.
func NewVectorRetriever(name string, embed Embedder, index VectorIndex) *VectorRetriever {
	return &VectorRetriever{name: name, embed: embed, index: index}
}

// Name returns the backend name.
func (r *VectorRetriever) Name() string { return r.name }

// Retrieve implements Retriever.
func (r *VectorRetriever) Retrieve(ctx context.Context, req *request.Request) ([]result.Hit, error) {
	emb, err := r.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, req.VectorQuery(emb.Embedding))
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", r.name, err)
	}
	return hits, nil
}
