package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/seeker/internal/domain"
)

// Backend kinds.
const (
	BackendQdrant   = "qdrant"
	BackendPipeline = "pipeline"
	BackendPinecone = "pinecone"
	BackendRedis    = "redis"
)

// Environment variables referenced by config/<env>.yaml. Validation errors name them.
const (
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvQdrantURL     = "QDRANT_URL"
	EnvQdrantKey     = "QDRANT_API_KEY"
	EnvPipelineURL   = "RAG_PIPELINE_URL"
	EnvPineconeHost  = "PINECONE_HOST"
	EnvPineconeKey   = "PINECONE_API_KEY"
	EnvRedisAddrs    = "REDIS_ADDRS"
	EnvSearchBackend = "SEARCH_BACKEND"
)

// DefaultPersona is the system prompt used when synthesis.persona is empty.
const DefaultPersona = "You are a knowledgeable research assistant for a library of mystical and philosophical " +
	"teachings. Answer the question using only the provided passages. Write in a warm, " +
	"contemplative tone, cite the sources by name where it helps, and say so plainly when " +
	"the passages do not contain the answer."

// Config holds the seeker configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Backend   BackendConfig   `yaml:"backend"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Pinecone  PineconeConfig  `yaml:"pinecone"`
	Redis     RedisConfig     `yaml:"redis"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Links     LinksConfig     `yaml:"links"`
	Providers ProvidersConfig `yaml:"providers"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// BackendConfig selects the retrieval backend.
type BackendConfig struct {
	Kind string `yaml:"kind"` // qdrant (default), pipeline, pinecone, redis
}

// OpenAIConfig holds embedding and chat completion settings.
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`

	// QueryInstruction is prepended to queries before embedding (e5, Qwen3 style models).
	QueryInstruction string `yaml:"query_instruction"`
}

// QdrantConfig holds Qdrant REST settings.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

// PipelineConfig holds remote RAG pipeline settings.
type PipelineConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// PineconeConfig holds Pinecone index settings.
type PineconeConfig struct {
	Host      string `yaml:"host"`
	APIKey    string `yaml:"api_key"`
	Namespace string `yaml:"namespace"`
}

// RedisConfig holds Redis Stack / Valkey vector index settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Index            string   `yaml:"index"`
	VectorField      string   `yaml:"vector_field"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SynthesisConfig holds answer generation settings.
type SynthesisConfig struct {
	MaxTokens      int      `yaml:"max_tokens"`
	Temperature    *float32 `yaml:"temperature"` // nil = DefaultTemperature; 0 is deterministic
	ContextResults int      `yaml:"context_results"`
	Persona        string   `yaml:"persona"`
}

// LinksConfig holds deep-link settings.
type LinksConfig struct {
	DocumentBase string `yaml:"document_base"`
}

// ProvidersConfig holds outbound call settings shared by all providers.
type ProvidersConfig struct {
	TimeoutSec int `yaml:"timeout_sec"` // 0 = no client timeout, request context only
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
// Provider settings are not validated here; see ValidateProviders.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// DefaultTemperature is used when synthesis.temperature is unset.
const DefaultTemperature float32 = 0.7

// TemperatureValue returns the configured sampling temperature, or DefaultTemperature when unset.
func (s SynthesisConfig) TemperatureValue() float32 {
	if s.Temperature == nil {
		return DefaultTemperature
	}
	return *s.Temperature
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	c.Backend.Kind = strings.ToLower(strings.TrimSpace(c.Backend.Kind))
	if c.Backend.Kind == "" {
		c.Backend.Kind = BackendQdrant
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o"
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "amorc_rag"
	}
	c.Redis.Addrs = splitAddrs(c.Redis.Addrs)
	if c.Redis.Index == "" {
		c.Redis.Index = "seeker:chunks"
	}
	if c.Redis.VectorField == "" {
		c.Redis.VectorField = "embedding"
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.Synthesis.MaxTokens <= 0 {
		c.Synthesis.MaxTokens = 800
	}
	if c.Synthesis.Temperature == nil || *c.Synthesis.Temperature < 0 {
		t := DefaultTemperature
		c.Synthesis.Temperature = &t
	}
	if c.Synthesis.ContextResults <= 0 {
		c.Synthesis.ContextResults = 5
	}
	if strings.TrimSpace(c.Synthesis.Persona) == "" {
		c.Synthesis.Persona = DefaultPersona
	}
	if c.Links.DocumentBase == "" {
		c.Links.DocumentBase = "/documents/"
	}
	if c.Providers.TimeoutSec < 0 {
		c.Providers.TimeoutSec = 0
	}
}

// Validate checks settings the process cannot start without.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	return nil
}

// ValidateProviders checks provider credentials for the selected backend.
// The returned error is a *domain.ConfigurationError naming the first missing variable.
// The server keeps running with an invalid provider setup and reports this error per request.
func (c *Config) ValidateProviders() error {
	// Synthesis runs for every backend, so the language model key is always required.
	if c.OpenAI.APIKey == "" {
		return domain.NewMissingVariable(EnvOpenAIKey)
	}
	return c.ValidateBackend()
}

// ValidateBackend checks only the settings of the selected retrieval backend.
func (c *Config) ValidateBackend() error {
	switch c.Backend.Kind {
	case BackendQdrant:
		if c.Qdrant.URL == "" {
			return domain.NewMissingVariable(EnvQdrantURL)
		}
		if c.Qdrant.APIKey == "" {
			return domain.NewMissingVariable(EnvQdrantKey)
		}
	case BackendPipeline:
		if c.Pipeline.URL == "" {
			return domain.NewMissingVariable(EnvPipelineURL)
		}
	case BackendPinecone:
		if c.Pinecone.Host == "" {
			return domain.NewMissingVariable(EnvPineconeHost)
		}
		if c.Pinecone.APIKey == "" {
			return domain.NewMissingVariable(EnvPineconeKey)
		}
	case BackendRedis:
		if len(c.Redis.Addrs) == 0 {
			return domain.NewMissingVariable(EnvRedisAddrs)
		}
	default:
		return &domain.ConfigurationError{
			Variable: EnvSearchBackend,
			Reason:   fmt.Sprintf("must be one of qdrant, pipeline, pinecone, redis, got %q", c.Backend.Kind),
		}
	}
	return nil
}

// splitAddrs accepts both YAML lists and a single comma-separated entry,
// dropping blanks left by unset variables.
func splitAddrs(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, a := range strings.Split(entry, ",") {
			if a = strings.TrimSpace(a); a != "" {
				out = append(out, a)
			}
		}
	}
	return out
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
