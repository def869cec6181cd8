package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/seeker/internal/domain"
)

func validConfig() Config {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Backend: BackendConfig{Kind: BackendQdrant},
		OpenAI:  OpenAIConfig{APIKey: "sk-test"},
		Qdrant:  QdrantConfig{URL: "http://localhost:6333", APIKey: "qk"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 0}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_PortOnly(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("provider settings must not fail startup validation: %v", err)
	}
}

func TestValidateProviders_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.ValidateProviders(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateProviders_MissingVariables(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantVar string
	}{
		{"openai key", func(c *Config) { c.OpenAI.APIKey = "" }, EnvOpenAIKey},
		{"qdrant url", func(c *Config) { c.Qdrant.URL = "" }, EnvQdrantURL},
		{"qdrant key", func(c *Config) { c.Qdrant.APIKey = "" }, EnvQdrantKey},
		{"pipeline url", func(c *Config) { c.Backend.Kind = BackendPipeline }, EnvPipelineURL},
		{"pinecone host", func(c *Config) { c.Backend.Kind = BackendPinecone }, EnvPineconeHost},
		{"pinecone key", func(c *Config) {
			c.Backend.Kind = BackendPinecone
			c.Pinecone.Host = "https://idx.svc.pinecone.io"
		}, EnvPineconeKey},
		{"redis addrs", func(c *Config) { c.Backend.Kind = BackendRedis }, EnvRedisAddrs},
		{"unknown backend", func(c *Config) { c.Backend.Kind = "elastic" }, EnvSearchBackend},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.ValidateProviders()
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			var cfgErr *domain.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *domain.ConfigurationError, got %T", err)
			}
			if cfgErr.Variable != tc.wantVar {
				t.Errorf("Variable = %q, want %q", cfgErr.Variable, tc.wantVar)
			}
		})
	}
}

func TestValidateProviders_MessageNamesVariable(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAI.APIKey = ""
	err := cfg.ValidateProviders()
	if err == nil || err.Error() != "OPENAI_API_KEY environment variable is not set" {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Backend.Kind != BackendQdrant {
		t.Errorf("expected Kind=qdrant, got %q", cfg.Backend.Kind)
	}
	if cfg.OpenAI.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("expected embedding model default, got %q", cfg.OpenAI.EmbeddingModel)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o" {
		t.Errorf("expected chat model gpt-4o, got %q", cfg.OpenAI.ChatModel)
	}
	if cfg.Qdrant.Collection != "amorc_rag" {
		t.Errorf("expected collection amorc_rag, got %q", cfg.Qdrant.Collection)
	}
	if cfg.Synthesis.MaxTokens != 800 {
		t.Errorf("expected MaxTokens=800, got %d", cfg.Synthesis.MaxTokens)
	}
	if cfg.Synthesis.TemperatureValue() != DefaultTemperature {
		t.Errorf("expected Temperature=%v, got %v", DefaultTemperature, cfg.Synthesis.TemperatureValue())
	}
	if cfg.Synthesis.ContextResults != 5 {
		t.Errorf("expected ContextResults=5, got %d", cfg.Synthesis.ContextResults)
	}
	if cfg.Synthesis.Persona != DefaultPersona {
		t.Error("expected default persona")
	}
	if cfg.Links.DocumentBase != "/documents/" {
		t.Errorf("expected DocumentBase=/documents/, got %q", cfg.Links.DocumentBase)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 90, ShutdownSec: 5},
		Backend:   BackendConfig{Kind: " Pinecone "},
		Synthesis: SynthesisConfig{MaxTokens: 400, Temperature: float32p(0.2), Persona: "terse"},
		Qdrant:    QdrantConfig{Collection: "custom"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 90 {
		t.Errorf("expected WriteTimeoutSec=90, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Backend.Kind != BackendPinecone {
		t.Errorf("expected normalized kind pinecone, got %q", cfg.Backend.Kind)
	}
	if cfg.Synthesis.MaxTokens != 400 || cfg.Synthesis.Persona != "terse" || cfg.Synthesis.TemperatureValue() != 0.2 {
		t.Errorf("synthesis overridden: %+v", cfg.Synthesis)
	}
	if cfg.Qdrant.Collection != "custom" {
		t.Errorf("expected collection custom, got %q", cfg.Qdrant.Collection)
	}
}

func float32p(f float32) *float32 { return &f }

func TestApplyDefaults_ZeroTemperatureKept(t *testing.T) {
	cfg := Config{Synthesis: SynthesisConfig{Temperature: float32p(0)}}
	cfg.ApplyDefaults()
	if got := cfg.Synthesis.TemperatureValue(); got != 0 {
		t.Errorf("explicit temperature 0 replaced with %v", got)
	}

	cfg = Config{Synthesis: SynthesisConfig{Temperature: float32p(-1)}}
	cfg.ApplyDefaults()
	if got := cfg.Synthesis.TemperatureValue(); got != DefaultTemperature {
		t.Errorf("negative temperature: got %v, want default", got)
	}
}

func TestLoad_ZeroTemperatureFromYAML(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte("synthesis:\n  temperature: 0\n"), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg.ApplyDefaults()
	if cfg.Synthesis.Temperature == nil || cfg.Synthesis.TemperatureValue() != 0 {
		t.Errorf("temperature: 0 from YAML not kept: %v", cfg.Synthesis.Temperature)
	}

	cfg = Config{}
	if err := yaml.Unmarshal([]byte("synthesis:\n  temperature:\n"), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg.ApplyDefaults()
	if cfg.Synthesis.TemperatureValue() != DefaultTemperature {
		t.Errorf("empty temperature: got %v, want default", cfg.Synthesis.TemperatureValue())
	}
}

func TestApplyDefaults_RedisAddrs(t *testing.T) {
	cfg := Config{Redis: RedisConfig{Addrs: []string{"", "a:6379, b:6379"}}}
	cfg.ApplyDefaults()

	if len(cfg.Redis.Addrs) != 2 || cfg.Redis.Addrs[0] != "a:6379" || cfg.Redis.Addrs[1] != "b:6379" {
		t.Errorf("unexpected addrs: %v", cfg.Redis.Addrs)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SEEKER_TEST_SET", "value")
	t.Setenv("SEEKER_TEST_EMPTY", "")

	got := string(expandEnvVars([]byte("a: ${SEEKER_TEST_SET}\nb: ${SEEKER_TEST_EMPTY:-fallback}\nc: ${SEEKER_TEST_MISSING}")))
	want := "a: value\nb: fallback\nc: "
	if got != want {
		t.Errorf("expandEnvVars() = %q, want %q", got, want)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yml := "http:\n  port: ${SEEKER_TEST_PORT:-9090}\nbackend:\n  kind: pipeline\npipeline:\n  url: http://rag/search\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Backend.Kind != BackendPipeline || cfg.Pipeline.URL != "http://rag/search" {
		t.Errorf("unexpected backend config: %+v / %+v", cfg.Backend, cfg.Pipeline)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SEEKER_TEST_DOTENV_PORT=7070\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"),
		[]byte("http:\n  port: ${SEEKER_TEST_DOTENV_PORT}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Cleanup(func() { _ = os.Unsetenv("SEEKER_TEST_DOTENV_PORT") })

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTP.Port != 7070 {
		t.Errorf("Port = %d, want 7070 from .env", cfg.HTTP.Port)
	}
}
