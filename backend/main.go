// ABOUTME: Entry point for the crochet studio backend service
// ABOUTME: Serves the studio API, public blob fetches and Prometheus metrics

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caffeinepub/crocheting-app/backend/cache"
	"github.com/caffeinepub/crocheting-app/backend/config"
	"github.com/caffeinepub/crocheting-app/backend/handlers"
	"github.com/caffeinepub/crocheting-app/backend/logger"
	"github.com/caffeinepub/crocheting-app/backend/middleware"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Initialize structured logging
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting crochet studio backend", "version", version, "public_url", cfg.PublicURL)
	if len(cfg.AdminPrincipals) == 0 && !cfg.BootstrapFirstAdmin {
		slog.Warn("No admin principals configured, tutorials cannot be managed")
	}
	if !cfg.RateLimitEnabled {
		slog.Warn("Rate limiting disabled")
	}

	// Short-lived auth state: login challenges and revoked session ids
	c := cache.New(cfg.ChallengeTTL)
	defer c.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	h := handlers.NewHandler(cfg, c, handlers.WithMetrics(metrics), handlers.WithVersion(version))
	mux := h.Mux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}
