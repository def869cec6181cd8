package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/seeker/internal/backend"
	"github.com/kailas-cloud/seeker/internal/config"
	"github.com/kailas-cloud/seeker/internal/domain/link"
	logpkg "github.com/kailas-cloud/seeker/internal/logger"
	"github.com/kailas-cloud/seeker/internal/metrics"
	chiTransport "github.com/kailas-cloud/seeker/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/seeker/internal/transport/openai"
	healthuc "github.com/kailas-cloud/seeker/internal/usecase/health"
	searchuc "github.com/kailas-cloud/seeker/internal/usecase/search"
	"github.com/kailas-cloud/seeker/internal/version"
)

const healthCheckTimeout = 5 * time.Second

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting seeker search gateway",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend", cfg.Backend.Kind),
	)

	metrics.RegisterProviderMetrics()

	checkers := map[string]healthuc.Checker{}
	searcher, cleanup := buildSearcher(&cfg, checkers, logger)
	defer cleanup()

	healthSvc := healthuc.New(checkers, healthCheckTimeout)
	server := chiTransport.NewServer(searcher, link.NewResolver(cfg.Links.DocumentBase), healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildSearcher is the composition root. Provider settings are checked once here;
// when they are incomplete the gateway still serves and every search reports the gap.
func buildSearcher(
	cfg *config.Config, checkers map[string]healthuc.Checker, logger *zap.Logger,
) (chiTransport.Searcher, func()) {
	if err := cfg.ValidateProviders(); err != nil {
		logger.Error("Provider configuration incomplete, searches will fail", zap.Error(err))
		return searchuc.NewUnconfigured(cfg.Backend.Kind, err), func() {}
	}

	timeout := time.Duration(cfg.Providers.TimeoutSec) * time.Second
	client := openaiTransport.NewClient(&openaiTransport.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Timeout: timeout,
	})
	synth := openaiTransport.NewSynthesizer(client, openaiTransport.SynthesizerConfig{
		Model:       cfg.OpenAI.ChatModel,
		MaxTokens:   cfg.Synthesis.MaxTokens,
		Temperature: cfg.Synthesis.TemperatureValue(),
	}, logger)
	checkers["llm"] = synth

	embedder := openaiTransport.NewEmbedder(client, cfg.OpenAI.EmbeddingModel, logger)
	b, err := backend.New(context.Background(), cfg, embedder)
	if err != nil {
		logger.Fatal("Failed to build search backend", zap.Error(err))
	}
	if b.Checker != nil {
		checkers["retriever"] = b.Checker
	}
	retriever := b.Retriever

	logger.Info("Search backend ready", zap.String("backend", retriever.Name()))
	return searchuc.New(retriever, synth, searchuc.Config{
		Persona:        cfg.Synthesis.Persona,
		ContextResults: cfg.Synthesis.ContextResults,
	}), b.Close
}
