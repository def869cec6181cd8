package seeker

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/seeker/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg config.Config

	embedder    Embedder
	synthesizer Synthesizer

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithOpenAI sets the OpenAI-compatible credentials used for embeddings and answers.
// An empty baseURL targets api.openai.com.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.OpenAI.APIKey = apiKey
		c.cfg.OpenAI.BaseURL = baseURL
	})
}

// WithModels overrides the embedding and chat models. Empty values keep the defaults
// (text-embedding-3-small, gpt-4o).
func WithModels(embedding, chat string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.OpenAI.EmbeddingModel = embedding
		c.cfg.OpenAI.ChatModel = chat
	})
}

// WithQueryInstruction prepends a task prefix to queries before embedding.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.OpenAI.QueryInstruction = instruction
	})
}

// WithQdrant retrieves from a Qdrant collection. This is the default backend.
func WithQdrant(url, apiKey, collection string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Backend.Kind = config.BackendQdrant
		c.cfg.Qdrant = config.QdrantConfig{URL: url, APIKey: apiKey, Collection: collection}
	})
}

// WithPipeline sends raw queries to a remote RAG pipeline. apiKey may be empty.
func WithPipeline(url, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Backend.Kind = config.BackendPipeline
		c.cfg.Pipeline = config.PipelineConfig{URL: url, APIKey: apiKey}
	})
}

// WithPinecone retrieves from a Pinecone index host.
func WithPinecone(host, apiKey, namespace string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Backend.Kind = config.BackendPinecone
		c.cfg.Pinecone = config.PineconeConfig{Host: host, APIKey: apiKey, Namespace: namespace}
	})
}

// WithRedis retrieves from a Redis Stack or Valkey FT index. An empty index uses "seeker:chunks".
func WithRedis(addr, password, index string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Backend.Kind = config.BackendRedis
		c.cfg.Redis.Addrs = []string{addr}
		c.cfg.Redis.Password = password
		c.cfg.Redis.Index = index
	})
}

// WithEmbedder replaces the OpenAI embedder for vector backends.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithSynthesizer replaces the OpenAI chat model used to write answers.
func WithSynthesizer(s Synthesizer) Option {
	return optionFunc(func(c *clientConfig) {
		c.synthesizer = s
	})
}

// WithPersona sets the system prompt for answers.
func WithPersona(persona string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Synthesis.Persona = persona
	})
}

// WithContextResults sets how many top sources feed the answer. Default: 5.
func WithContextResults(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Synthesis.ContextResults = n
	})
}

// WithDocumentBase sets the prefix for relative document paths in deep links.
// Default: "/documents/".
func WithDocumentBase(base string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Links.DocumentBase = base
	})
}

// WithTimeout bounds every outbound provider call. Zero or negative leaves it to the context.
// Providers are configured in whole seconds, so d is rounded up.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Providers.TimeoutSec = timeoutSeconds(d)
	})
}

func timeoutSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
