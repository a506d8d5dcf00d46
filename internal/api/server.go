package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/soaringjerry/psyscore/internal/middleware"
)

// Pinger reports storage health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HandlerOptions struct {
	Auth           *middleware.Authenticator
	AllowedOrigins []string
	Health         Pinger
	Logger         *slog.Logger
	Version        string
}

// NewHandler assembles the survey routes, /health and the middleware chain.
func NewHandler(rt *Router, opts HandlerOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	rt.Register(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"ok": true, "name": "psyscore", "version": opts.Version}
		if opts.Health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Health.PingContext(ctx); err != nil {
				logger.Warn("health check failed", "error", err)
				body["ok"] = false
				writeJSON(w, http.StatusServiceUnavailable, body)
				return
			}
		}
		writeJSON(w, http.StatusOK, body)
	})

	// logging sits inside auth so it can see the user id
	var h http.Handler = middleware.WithLogging(logger)(mux)
	if opts.Auth != nil {
		h = opts.Auth.WithAuth(h)
	}
	h = middleware.NoStore(h)
	h = middleware.SecureHeaders(h)
	h = middleware.CORS(opts.AllowedOrigins)(h)
	return middleware.Compress(h)
}
