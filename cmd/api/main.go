package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/Bahjat/seo-audit/internal/analyzer"
	"github.com/Bahjat/seo-audit/internal/audit"
	"github.com/Bahjat/seo-audit/internal/platform/config"
	"github.com/Bahjat/seo-audit/internal/platform/logger"
	"github.com/Bahjat/seo-audit/internal/platform/middleware"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := audit.NewHTTPClient(audit.FetchOptions{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.UserAgent,
	})
	prober := audit.NewLinkProber(audit.ProberOptions{
		Concurrency:    cfg.LinkCheckConcurrency,
		LinkTimeout:    cfg.Policy.Links.Timeout.Duration,
		RobotsTimeout:  cfg.Policy.Sitemap.RobotsTimeout.Duration,
		RobotsCacheTTL: cfg.RobotsCacheTTL,
		UserAgent:      cfg.UserAgent,
		HostRate:       rate.Limit(cfg.ProbeHostRPS),
		HostBurst:      cfg.ProbeHostBurst,
	})
	engine := audit.NewEngine(fetcher, prober,
		audit.WithPolicy(audit.DefaultPolicy().With(cfg.Policy)),
		audit.WithLogger(log),
	)

	service := analyzer.NewService(engine, log)
	transport := analyzer.NewTransport(service, log, cfg.AnalyzeTimeout)

	mux := http.NewServeMux()
	transport.RegisterRoutes(mux)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)
	handler := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(log),
		middleware.Recover(log),
		limiter.Middleware,
	)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AnalyzeTimeout + 10*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("seo audit service listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
