package chi

import "net/http"

// Cross-origin and framing headers. The gateway is embedded in third-party pages.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, POST, PUT, DELETE, OPTIONS",
	"Access-Control-Allow-Headers": "X-Requested-With, Content-Type, Authorization",
	"X-Frame-Options":              "ALLOWALL",
	"Content-Security-Policy":      "frame-ancestors *",
}

// CORS sets permissive cross-origin headers on every response and answers preflight requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range corsHeaders {
			h.Set(k, v)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
