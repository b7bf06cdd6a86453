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

	"github.com/joho/godotenv"

	"github.com/bentacars/qualifier/internal/app/bootstrap"
	appconfig "github.com/bentacars/qualifier/internal/config"
	"github.com/bentacars/qualifier/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("starting bentacars qualifier API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"phraser", cfg.PhraserProvider,
	)

	srv, app, err := newServer(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to assemble server", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func newServer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*http.Server, *bootstrap.App, error) {
	app, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return nil, nil, err
	}
	// WriteTimeout leaves room for the phrasing deadline plus Redis.
	writeTimeout := 15 * time.Second
	if limit := cfg.PhraseTimeout + 5*time.Second; limit > writeTimeout {
		writeTimeout = limit
	}
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}, app, nil
}
