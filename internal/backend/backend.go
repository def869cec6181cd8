// Package backend builds the retrieval backend selected in configuration.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/seeker/internal/config"
	dbRedis "github.com/kailas-cloud/seeker/internal/db/redis"
	"github.com/kailas-cloud/seeker/internal/domain"
	searchrepo "github.com/kailas-cloud/seeker/internal/repository/search"
	"github.com/kailas-cloud/seeker/internal/transport/pinecone"
	"github.com/kailas-cloud/seeker/internal/transport/pipeline"
	"github.com/kailas-cloud/seeker/internal/transport/qdrant"
	healthuc "github.com/kailas-cloud/seeker/internal/usecase/health"
	searchuc "github.com/kailas-cloud/seeker/internal/usecase/search"
)

// Backend is a ready retriever plus what it needs at runtime.
type Backend struct {
	Retriever searchuc.Retriever
	// Checker is nil when the backend exposes no health check.
	Checker healthuc.Checker
	Close   func()
}

// New builds the retriever for cfg.Backend.Kind. Vector backends embed queries with embed;
// the pipeline ignores it. The Redis store is connected and awaited before returning.
func New(ctx context.Context, cfg *config.Config, embed searchuc.Embedder) (Backend, error) {
	timeout := time.Duration(cfg.Providers.TimeoutSec) * time.Second
	b := Backend{Close: func() {}}
	if cfg.OpenAI.QueryInstruction != "" {
		embed = domain.NewInstructionEmbedder(embed, cfg.OpenAI.QueryInstruction)
	}

	switch cfg.Backend.Kind {
	case config.BackendPipeline:
		b.Retriever = pipeline.New(pipeline.Config{
			URL:     cfg.Pipeline.URL,
			APIKey:  cfg.Pipeline.APIKey,
			Timeout: timeout,
		})
	case config.BackendQdrant:
		index := qdrant.New(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    timeout,
		})
		b.Checker = index
		b.Retriever = searchuc.NewVectorRetriever(qdrant.Name, embed, index)
	case config.BackendPinecone:
		index := pinecone.New(pinecone.Config{
			Host:      cfg.Pinecone.Host,
			APIKey:    cfg.Pinecone.APIKey,
			Namespace: cfg.Pinecone.Namespace,
			Timeout:   timeout,
		})
		b.Checker = index
		b.Retriever = searchuc.NewVectorRetriever(pinecone.Name, embed, index)
	case config.BackendRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			return Backend{}, fmt.Errorf("create redis store: %w", err)
		}
		readiness := time.Duration(cfg.Redis.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			store.Close()
			return Backend{}, fmt.Errorf("redis not ready: %w", err)
		}
		repo := searchrepo.New(store, cfg.Redis.Index, cfg.Redis.VectorField)
		b.Checker = store
		b.Close = store.Close
		b.Retriever = searchuc.NewVectorRetriever(searchrepo.Name, embed, repo)
	default:
		return Backend{}, &domain.ConfigurationError{
			Variable: config.EnvSearchBackend,
			Reason:   fmt.Sprintf("unknown backend %q", cfg.Backend.Kind),
		}
	}
	return b, nil
}
