package search

import (
	"context"

	"github.com/kailas-cloud/seeker/internal/domain"
	"github.com/kailas-cloud/seeker/internal/domain/search/request"
	"github.com/kailas-cloud/seeker/internal/domain/search/result"
)

// Retriever fetches raw hits for a request from one backend.
type Retriever interface {
	Retrieve(ctx context.Context, req *request.Request) ([]result.Hit, error)
	Name() string
}

// VectorIndex runs nearest-neighbour lookups for an already embedded query.
type VectorIndex interface {
	Search(ctx context.Context, q request.Vector) ([]result.Hit, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Synthesizer writes an answer from a system prompt and a user prompt.
type Synthesizer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
