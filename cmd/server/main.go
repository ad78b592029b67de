package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldquote/estimate-gateway/internal/api"
	"github.com/fieldquote/estimate-gateway/internal/config"
	"github.com/fieldquote/estimate-gateway/internal/draft"
	"github.com/fieldquote/estimate-gateway/internal/email"
	"github.com/fieldquote/estimate-gateway/internal/observability"
	"github.com/fieldquote/estimate-gateway/internal/store"
	"github.com/fieldquote/estimate-gateway/internal/stt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("stt_provider", cfg.STTProvider).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Estimate Gateway starting")

	estimates, err := store.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("Failed to open estimate store")
	}
	defer estimates.Close()

	transcriber, err := stt.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create transcriber")
	}

	mailer := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
	})

	drafts := draft.NewStore()

	mux := http.NewServeMux()

	recording := api.NewRecordingHandler(cfg, transcriber, drafts, logger)
	mux.HandleFunc("/ws/record", recording.HandleWS)

	handlers := api.NewHandlers(estimates, drafts, mailer, logger)
	handlers.Register(mux)

	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"sqlite": func(ctx context.Context) (bool, error) {
			if err := estimates.Ping(ctx); err != nil {
				return false, err
			}
			return true, nil
		},
		"stt": func(ctx context.Context) (bool, error) {
			// Config validation already proved the provider has its key;
			// no probe call here to avoid API costs.
			return transcriber != nil, nil
		},
	}))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 0, // WebSocket recordings are long-lived
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/ws/record", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
