package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inferbench/inferbench/internal/api"
	"github.com/inferbench/inferbench/internal/config"
	"github.com/inferbench/inferbench/internal/inference"
	"github.com/inferbench/inferbench/internal/logging"
	"github.com/inferbench/inferbench/internal/sampler"
	"github.com/inferbench/inferbench/internal/service/benchrun"
	"github.com/inferbench/inferbench/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize logging
	logger := logging.Setup(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logger.Info("starting benchmark API server",
		slog.String("version", "0.1.0"),
		slog.Int("port", cfg.Server.Port),
		slog.String("target", cfg.Target.BaseURL()))

	// Initialize report history database
	db, err := storage.New(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	reportStore := storage.NewReportStore(db)

	// Inference client against the target server
	client := inference.NewClient(
		inference.WithTimeout(cfg.Benchmark.RequestTimeout),
		inference.WithStreaming(cfg.Benchmark.Streaming),
		inference.WithLogger(logger))

	// Resource sampling of the target process tree
	provider := sampler.NewProcessTreeProvider(sampler.Selector{
		ProcessName: cfg.Sampler.ProcessName,
		PIDFile:     cfg.Sampler.PIDFile,
	}, logger)

	runner := benchrun.NewRunner(client, provider,
		benchrun.WithSampleInterval(cfg.Sampler.Interval),
		benchrun.WithRunnerLogger(logger))

	controller := benchrun.NewController(runner,
		inference.Target{BaseURL: cfg.Target.BaseURL(), Model: cfg.Target.Model},
		benchrun.WithReportSink(reportStore),
		benchrun.WithExportPath(cfg.Benchmark.ExportPath),
		benchrun.WithControllerLogger(logger))

	// Initialize API server
	server := api.New(controller,
		api.WithLogger(logger),
		api.WithHost(cfg.Server.Host),
		api.WithPort(cfg.Server.Port),
		api.WithReportHistory(reportStore))

	server.SetReady(true)

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		server.SetReady(false)

		// Let an in-flight run store its report before stopping.
		done := make(chan struct{})
		go func() {
			controller.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(30 * time.Second):
			logger.Warn("benchmark run still in flight, shutting down anyway")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.String("error", err.Error()))
		}
	}()

	// Start server
	if err := server.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
