package openai

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/seeker/internal/domain"
	"github.com/kailas-cloud/seeker/internal/metrics"
)

// Synthesizer writes prose answers with the chat completions API.
type Synthesizer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// SynthesizerConfig holds chat completion parameters.
type SynthesizerConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// NewSynthesizer creates a chat completion client.
func NewSynthesizer(client *openai.Client, cfg SynthesizerConfig, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Complete sends a system and a user message and returns the first choice's text.
// An empty answer is returned as is; the caller decides on fallbacks.
func (s *Synthesizer) Complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   s.maxTokens,
		Temperature: wireTemperature(s.temperature),
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	metrics.ObserveProvider(ProviderName, metrics.OpChat, start, err)
	if err != nil {
		s.logger.Warn("chat completion failed", zap.String("model", s.model), zap.Error(err))
		return "", parseAPIError("chat", err, domain.ErrSynthesis)
	}

	if resp.Usage.PromptTokens > 0 {
		metrics.TokensTotal.WithLabelValues(s.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	}
	if resp.Usage.CompletionTokens > 0 {
		metrics.TokensTotal.WithLabelValues(s.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices: %w", domain.ErrSynthesis)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// wireTemperature keeps an explicit 0 on the wire; go-openai omits zero temperatures,
// which providers read as their own default.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// HealthCheck verifies API availability.
func (s *Synthesizer) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, s.client)
}
