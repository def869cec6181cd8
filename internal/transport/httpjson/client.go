// Package httpjson is the small JSON-over-HTTP client shared by the REST retrieval backends.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/seeker/internal/domain"
)

// maxErrorBody caps how much of a failed response is read for diagnostics.
const maxErrorBody = 64 << 10

// Client posts JSON to one backend and maps failures to *domain.BackendError.
type Client struct {
	backend string
	headers map[string]string
	http    *http.Client
}

// New creates a client. backend names the provider in errors; headers are sent on every call.
// A zero timeout leaves cancellation to the request context.
func New(backend string, timeout time.Duration, headers map[string]string) *Client {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		if v != "" {
			h[k] = v
		}
	}
	return &Client{
		backend: backend,
		headers: h,
		http:    &http.Client{Timeout: timeout},
	}
}

// Backend returns the provider name used in errors.
func (c *Client) Backend() string { return c.backend }

// Post sends body as JSON and decodes a 2xx response into out (skipped when out is nil).
func (c *Client) Post(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", c.backend, err)
	}
	return c.do(ctx, http.MethodPost, url, bytes.NewReader(data), out)
}

// Get performs a GET and decodes a 2xx response into out (skipped when out is nil).
func (c *Client) Get(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &domain.BackendError{Backend: c.backend, Detail: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s request: %w", c.backend, errors.Join(ctxErr, domain.ErrBackend))
		}
		return &domain.BackendError{Backend: c.backend, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.BackendError{
			Backend: c.backend,
			Status:  resp.StatusCode,
			Detail:  ErrorDetail(raw),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &domain.BackendError{
			Backend: c.backend,
			Status:  resp.StatusCode,
			Detail:  "malformed response: " + err.Error(),
		}
	}
	return nil
}

// ErrorDetail pulls the provider's own message out of an error body.
// Checked in order: status.error, error (string or {message}), detail, message.
func ErrorDetail(body []byte) string {
	var parsed map[string]any
	if json.Unmarshal(body, &parsed) != nil {
		return strings.TrimSpace(string(body))
	}
	if status, ok := parsed["status"].(map[string]any); ok {
		if s := stringOf(status["error"]); s != "" {
			return s
		}
	}
	switch e := parsed["error"].(type) {
	case string:
		if e != "" {
			return e
		}
	case map[string]any:
		if s := stringOf(e["message"]); s != "" {
			return s
		}
	}
	for _, key := range []string{"detail", "message"} {
		if s := stringOf(parsed[key]); s != "" {
			return s
		}
	}
	return ""
}

func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
