package seeker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/seeker/internal/backend"
	"github.com/kailas-cloud/seeker/internal/config"
	"github.com/kailas-cloud/seeker/internal/domain"
	"github.com/kailas-cloud/seeker/internal/domain/link"
	"github.com/kailas-cloud/seeker/internal/domain/search/request"
	"github.com/kailas-cloud/seeker/internal/domain/search/result"
	"github.com/kailas-cloud/seeker/internal/domain/subtitle"
	openaiTransport "github.com/kailas-cloud/seeker/internal/transport/openai"
	healthuc "github.com/kailas-cloud/seeker/internal/usecase/health"
	searchuc "github.com/kailas-cloud/seeker/internal/usecase/search"
)

const healthCheckTimeout = 5 * time.Second

// searchUseCase is the internal interface for answered searches.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (searchuc.Response, error)
}

// Client is the seeker SDK entry point.
type Client struct {
	searchSvc searchUseCase
	healthSvc healthUseCase
	links     *link.Resolver
	closeFn   func()
	obs       *observer
}

// New creates a Client for the configured backend. A Redis backend is connected
// and awaited with ctx. Missing credentials yield an error wrapping ErrConfiguration.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}
	cc.cfg.ApplyDefaults()

	if err := validate(cc); err != nil {
		return nil, fmt.Errorf("seeker: %w", err)
	}

	var llm *openaiTransport.Synthesizer
	embed, synth := embedderFor(cc), synthesizerFor(cc)
	if embed == nil || synth == nil {
		client := openaiTransport.NewClient(&openaiTransport.Config{
			APIKey:  cc.cfg.OpenAI.APIKey,
			BaseURL: cc.cfg.OpenAI.BaseURL,
			Timeout: time.Duration(cc.cfg.Providers.TimeoutSec) * time.Second,
		})
		if embed == nil {
			embed = openaiTransport.NewEmbedder(client, cc.cfg.OpenAI.EmbeddingModel, zap.NewNop())
		}
		if synth == nil {
			llm = openaiTransport.NewSynthesizer(client, openaiTransport.SynthesizerConfig{
				Model:       cc.cfg.OpenAI.ChatModel,
				MaxTokens:   cc.cfg.Synthesis.MaxTokens,
				Temperature: cc.cfg.Synthesis.TemperatureValue(),
			}, zap.NewNop())
			synth = llm
		}
	}

	b, err := backend.New(ctx, &cc.cfg, embed)
	if err != nil {
		return nil, fmt.Errorf("seeker: %w", err)
	}

	obs, err := newObserver(b.Retriever.Name(), cc.logger, cc.metricsReg)
	if err != nil {
		b.Close()
		return nil, err
	}

	checkers := map[string]healthuc.Checker{}
	if b.Checker != nil {
		checkers["retriever"] = b.Checker
	}
	if llm != nil {
		checkers["llm"] = llm
	}

	return &Client{
		searchSvc: searchuc.New(b.Retriever, synth, searchuc.Config{
			Persona:        cc.cfg.Synthesis.Persona,
			ContextResults: cc.cfg.Synthesis.ContextResults,
		}),
		healthSvc: healthuc.New(checkers, healthCheckTimeout),
		links:     link.NewResolver(cc.cfg.Links.DocumentBase),
		closeFn:   b.Close,
		obs:       obs,
	}, nil
}

// validate requires the OpenAI key only for the providers the caller did not supply.
func validate(cc *clientConfig) error {
	needsEmbedder := cc.cfg.Backend.Kind != config.BackendPipeline && cc.embedder == nil
	if (needsEmbedder || cc.synthesizer == nil) && cc.cfg.OpenAI.APIKey == "" {
		return domain.NewMissingVariable(config.EnvOpenAIKey)
	}
	return cc.cfg.ValidateBackend()
}

func embedderFor(cc *clientConfig) searchuc.Embedder {
	if cc.embedder == nil {
		if cc.cfg.Backend.Kind == config.BackendPipeline {
			return noopEmbedder{}
		}
		return nil
	}
	return &embedderAdapter{inner: cc.embedder}
}

func synthesizerFor(cc *clientConfig) searchuc.Synthesizer {
	if cc.synthesizer == nil {
		return nil
	}
	return cc.synthesizer
}

// noopEmbedder stands in where the backend embeds queries itself.
type noopEmbedder struct{}

func (noopEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf("%w: backend embeds queries itself", domain.ErrEmbeddingProviderError)
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// Search retrieves sources for query and answers from them.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (resp SearchResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	req, err := request.New(query, request.Params{
		TopK:           opts.TopK,
		MatchThreshold: opts.MatchThreshold,
		HybridAlpha:    opts.HybridAlpha,
		Graph: request.Graph{
			Enabled: opts.UseGraph,
			Weight:  opts.GraphWeight,
			MaxHops: opts.MaxHops,
		},
	})
	if err != nil {
		return SearchResponse{}, err
	}

	out, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}
	if out.Fallback {
		c.obs.fallback()
	}

	sources := make([]Source, len(out.Results))
	for i := range out.Results {
		sources[i] = c.toSource(&out.Results[i])
	}
	return SearchResponse{
		Answer:   out.Answer,
		Sources:  sources,
		Backend:  out.Backend,
		Engine:   out.Engine,
		Fallback: out.Fallback,
		Took:     out.Took,
	}, nil
}

// ResolveLink normalizes a raw backend payload and resolves where it opens.
func (c *Client) ResolveLink(payload map[string]any) Link {
	r := result.Normalize(result.Hit{Payload: payload})
	return c.linkFor(r.Metadata())
}

// SubtitlesToVTT converts SRT subtitles to WebVTT.
func SubtitlesToVTT(srt string) string {
	return subtitle.SRTToVTT(srt)
}

func (c *Client) toSource(r *result.Result) Source {
	md := r.Metadata()
	return Source{
		ID:      r.ID(),
		Score:   r.Score(),
		Content: r.Content(),
		Title:   md.Title,
		Source:  md.Source,
		Type:    md.Type,
		Page:    md.Page,
		Link:    c.linkFor(md),
		Raw:     md.Raw,
	}
}

func (c *Client) linkFor(md result.Metadata) Link {
	target, ok := c.links.Resolve(md)
	if !ok {
		return Link{Label: link.Label(md.Type)}
	}
	return Link{URL: target.URL, Label: target.Label, Kind: string(target.Kind), Openable: true}
}
