package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/seeker/internal/metrics"
)

// ProviderName labels OpenAI-compatible calls in logs and metrics.
const ProviderName = "openai"

// Config holds the OpenAI-compatible API settings shared by the embedder and synthesizer.
type Config struct {
	APIKey  string
	BaseURL string // empty = api.openai.com
	Timeout time.Duration
}

// NewClient creates a go-openai client. A zero Timeout leaves cancellation to the request context.
func NewClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return openai.NewClientWithConfig(clientCfg)
}

// healthCheck verifies API availability via ListModels (free endpoint).
func healthCheck(ctx context.Context, client *openai.Client) error {
	start := time.Now()
	_, err := client.ListModels(ctx)
	metrics.ObserveProvider(ProviderName, metrics.OpHealth, start, err)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response and wraps it
// with the given domain sentinel.
func parseAPIError(kind string, err error, wrap error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%s API error %d: %s: %w", kind, reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", kind, apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request: %w: %w", kind, err, wrap)
	}

	return fmt.Errorf("%s request failed: %w", kind, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body
// (FastAPI-style gateways in front of self-hosted models).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
