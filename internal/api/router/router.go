package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/bentacars/qualifier/internal/http/middleware"
	"github.com/bentacars/qualifier/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger      *logging.Logger
	ChatHandler http.Handler
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// RateLimiter guards /api/chat when set.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg == nil || cfg.ChatHandler == nil {
		panic("router: chat handler cannot be nil")
	}
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		// Every method reaches the handler so non-POST gets the JSON 405.
		api.Handle("/api/chat", cfg.ChatHandler)
	})

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
