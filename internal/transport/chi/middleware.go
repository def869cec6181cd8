package chi

import (
	"context"
	"net/http"
	"sync"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/seeker/internal/logger"
)

// jsonRecoverer turns a handler panic into the JSON 500 envelope.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func jsonRecoverer(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel compared as recover() value
					panic(rvr)
				}
				log.Error("panic recovered",
					zap.Any("panic", rvr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stacktrace"),
				)
				writeError(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEvent collects fields that handlers attach to the request's canonical log line.
type wideEvent struct {
	mu     sync.Mutex
	fields []zap.Field
}

type wideEventKey struct{}

// annotate adds fields to the canonical log line of the request in ctx. No-op outside one.
func annotate(ctx context.Context, fields ...zap.Field) {
	ev, ok := ctx.Value(wideEventKey{}).(*wideEvent)
	if !ok {
		return
	}
	ev.mu.Lock()
	ev.fields = append(ev.fields, fields...)
	ev.mu.Unlock()
}

// wideEventMiddleware writes one "http_request" line per request, with handler annotations,
// at a level that follows the status: 5xx error, 4xx warn, otherwise info.
// It echoes chi's request id as X-Request-ID and puts a request-scoped logger into the context.
func wideEventMiddleware(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := log.With(zap.String("request_id", requestID))
			ev := &wideEvent{}
			ctx := logger.ContextWithLogger(r.Context(), reqLogger)
			ctx = context.WithValue(ctx, wideEventKey{}, ev)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			ev.mu.Lock()
			fields = append(fields, ev.fields...)
			ev.mu.Unlock()

			if ce := reqLogger.Check(statusLevel(status), "http_request"); ce != nil {
				ce.Write(fields...)
			}
		})
	}
}

func statusLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
