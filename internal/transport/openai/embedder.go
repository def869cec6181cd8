package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/seeker/internal/domain"
	"github.com/kailas-cloud/seeker/internal/metrics"
)

// Embedder turns search queries into vectors using an OpenAI-compatible embeddings API.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	logger *zap.Logger
}

// NewEmbedder creates an embedding provider.
func NewEmbedder(client *openai.Client, model string, logger *zap.Logger) *Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		client: client,
		model:  openai.EmbeddingModel(model),
		logger: logger,
	}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		metrics.ObserveProvider(ProviderName, metrics.OpEmbed, start, err)
		e.logger.Warn("embedding failed", zap.String("model", string(e.model)), zap.Error(err))
		return domain.EmbeddingResult{}, parseAPIError("embedding", err, domain.ErrEmbeddingProviderError)
	}
	if len(resp.Data) == 0 {
		err = fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
		metrics.ObserveProvider(ProviderName, metrics.OpEmbed, start, err)
		return domain.EmbeddingResult{}, err
	}
	metrics.ObserveProvider(ProviderName, metrics.OpEmbed, start, nil)

	if resp.Usage.PromptTokens > 0 {
		metrics.TokensTotal.WithLabelValues(string(e.model), "prompt").Add(float64(resp.Usage.PromptTokens))
	}

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, e.client)
}
