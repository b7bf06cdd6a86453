package bootstrap

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bentacars/qualifier/internal/api/router"
	"github.com/bentacars/qualifier/internal/chat"
	appconfig "github.com/bentacars/qualifier/internal/config"
	httpmiddleware "github.com/bentacars/qualifier/internal/http/middleware"
	"github.com/bentacars/qualifier/internal/memory"
	"github.com/bentacars/qualifier/internal/observability/metrics"
	"github.com/bentacars/qualifier/internal/qualify"
	"github.com/bentacars/qualifier/pkg/logging"
)

// App is the assembled service shared by the HTTP server and the Lambda.
type App struct {
	Handler http.Handler
	Chat    *chat.Handler
	Engine  *qualify.Engine
	Store   memory.Store
	Metrics *metrics.TurnMetrics

	redis   *redis.Client
	limiter *httpmiddleware.RateLimiter
}

// Options tweak Build for tests and alternate entrypoints.
type Options struct {
	// Registry receives the service metrics; a fresh registry when nil.
	Registry *prometheus.Registry
	// SkipRedisPing builds the Redis client without verifying it.
	SkipRedisPing bool
	// DisableRateLimit leaves /api/chat unthrottled (API Gateway throttles
	// the Lambda).
	DisableRateLimit bool
}

// Build wires config into a ready-to-serve App.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	playbook, err := appconfig.LoadPlaybook(cfg.PlaybookPath)
	if err != nil {
		return nil, err
	}
	engineCfg, err := cfg.EngineConfig(playbook)
	if err != nil {
		return nil, err
	}
	if playbook != nil {
		logger.Info("playbook loaded", "path", cfg.PlaybookPath)
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	turnMetrics := metrics.NewTurnMetrics(reg)

	phraser, err := BuildPhraser(ctx, cfg, turnMetrics, logger)
	if err != nil {
		return nil, err
	}
	engineOpts := []qualify.Option{qualify.WithLogger(logger.Slog())}
	if phraser != nil {
		engineOpts = append(engineOpts, qualify.WithPhraser(phraser))
	}
	engine := qualify.NewEngine(engineCfg, engineOpts...)

	redisClient := BuildRedisClient(ctx, cfg, logger, !opts.SkipRedisPing)
	store := BuildMemoryStore(redisClient, cfg)

	chatHandler := chat.NewHandler(engine, store, turnMetrics, logger)

	var limiter *httpmiddleware.RateLimiter
	if !opts.DisableRateLimit && cfg.RateLimitPerSecond > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})

	logger.Info("qualifier assembled",
		"memory", store != nil,
		"phraser", phraser != nil,
		"location_optional", engineCfg.LocationOptional,
	)
	return &App{
		Handler: handler,
		Chat:    chatHandler,
		Engine:  engine,
		Store:   store,
		Metrics: turnMetrics,
		redis:   redisClient,
		limiter: limiter,
	}, nil
}

// Close releases the Redis connection and stops background work.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
