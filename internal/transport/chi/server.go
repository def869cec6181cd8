package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/seeker/internal/domain"
	"github.com/kailas-cloud/seeker/internal/domain/link"
	"github.com/kailas-cloud/seeker/internal/domain/search/request"
	"github.com/kailas-cloud/seeker/internal/domain/search/result"
	"github.com/kailas-cloud/seeker/internal/domain/subtitle"
	"github.com/kailas-cloud/seeker/internal/logger"
	"github.com/kailas-cloud/seeker/internal/metrics"
	healthuc "github.com/kailas-cloud/seeker/internal/usecase/health"
	searchuc "github.com/kailas-cloud/seeker/internal/usecase/search"
	"github.com/kailas-cloud/seeker/internal/version"
)

const (
	maxSearchBody   = 64 << 10
	maxSubtitleBody = 8 << 20
)

// Searcher answers search requests. Both the live service and the
// unconfigured stand-in satisfy it.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (searchuc.Response, error)
	Backend() string
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, engine string) bool

// Server serves the search gateway HTTP API.
type Server struct {
	search        Searcher
	links         *link.Resolver
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. A nil resolver uses the default document base.
func NewServer(search Searcher, links *link.Resolver, health *healthuc.Service, logger *zap.Logger) *Server {
	if links == nil {
		links = link.NewResolver("")
	}
	s := &Server{
		search: search,
		links:  links,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		configurationHandler,
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, msgInvalidSearchBody),
	}
	return s
}

// Router builds the chi router with the middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(CORS)

	r.Post("/api/search", s.Search)
	r.Post("/api/links/resolve", s.ResolveLink)
	r.Post("/api/subtitles/vtt", s.ConvertSubtitles)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	})
	return r
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	dec := json.NewDecoder(io.LimitReader(r.Body, maxSearchBody))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: msgInvalidSearchBody})
		return
	}

	req, err := request.FromBody(body)
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}

	ctx := logger.With(r.Context(), zap.String("backend", s.search.Backend()))
	annotate(ctx, zap.String("backend", s.search.Backend()), logger.Query(req.Query()), zap.Int("top_k", req.TopK()))
	resp, err := s.search.Search(ctx, &req)
	if err != nil {
		annotate(ctx, zap.Error(err))
		s.handleDomainError(w, err, searchuc.EngineLabel(s.search.Backend()))
		return
	}

	annotate(ctx, zap.Int("sources", len(resp.Results)), zap.Bool("fallback_answer", resp.Fallback))
	writeJSON(w, http.StatusOK, s.searchResponse(resp))
}

// ResolveLink handles POST /api/links/resolve.
func (s *Server) ResolveLink(w http.ResponseWriter, r *http.Request) {
	var md result.Metadata
	if err := json.NewDecoder(io.LimitReader(r.Body, maxSearchBody)).Decode(&md); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid request body - metadata object is required",
			Details: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, s.linkFor(md))
}

// ConvertSubtitles handles POST /api/subtitles/vtt.
func (s *Server) ConvertSubtitles(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSubtitleBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if strings.TrimSpace(string(raw)) == "" {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body - subtitle text is required"})
		return
	}

	w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, subtitle.SRTToVTT(string(raw)))
}

// configCheck names the /health entry for the searcher's own configuration.
const configCheck = "config"

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}
	if s.health != nil {
		report = s.health.Check(r.Context())
	}
	// A searcher that can vouch for its own setup (Unconfigured) overrides the checks:
	// dependencies may be up while every search is bound to fail.
	if c, ok := s.search.(healthuc.Checker); ok {
		if err := c.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("health: searcher not usable", zap.Error(err))
			report.Status = healthuc.Unhealthy
			report.Checks[configCheck] = healthuc.CheckError
		}
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Checks:  report.Checks,
		Backend: s.search.Backend(),
		Version: version.String(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	writeJSON(w, status, resp)
}

// configurationHandler surfaces the missing variable to the caller.
func configurationHandler(w http.ResponseWriter, err error, _ string) bool {
	var ce *domain.ConfigurationError
	if !errors.As(err, &ce) {
		return false
	}
	writeError(w, http.StatusInternalServerError, errorResponse{Error: ce.Error()})
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, msg string) errorHandler {
	return func(w http.ResponseWriter, err error, _ string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, errorResponse{Error: msg, Details: err.Error()})
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error, engine string) {
	for _, h := range s.errorHandlers {
		if h(w, err, engine) {
			s.logger.Warn("request rejected", zap.Error(err))
			return
		}
	}
	s.logger.Error("search failed", zap.Error(err), zap.String("search_engine", engine))
	writeError(w, http.StatusInternalServerError, errorResponse{
		Error:        msgSearchFailed,
		Details:      err.Error(),
		SearchEngine: engine,
	})
}
