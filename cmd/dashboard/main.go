package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/disaster-funding-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/disaster-funding-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-funding-service/internal/adapter/pdf"
	"github.com/couchcryptid/disaster-funding-service/internal/config"
	"github.com/couchcryptid/disaster-funding-service/internal/dataset"
	"github.com/couchcryptid/disaster-funding-service/internal/observability"
	"github.com/couchcryptid/disaster-funding-service/internal/pipeline"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Snapshot publication is feature-flagged via KAFKA_ENABLED.
	var publisher pipeline.SnapshotPublisher
	var writer *kafkaadapter.SnapshotWriter
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewSnapshotWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka snapshots enabled", "topic", cfg.KafkaSnapshotTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka snapshots disabled")
	}

	var renderer httpadapter.PDFRenderer
	if cfg.PDFEnabled {
		renderer = pdf.NewRenderer(cfg.PDFTimeout, logger)
		logger.Info("pdf fact sheets enabled", "timeout", cfg.PDFTimeout)
	} else {
		logger.Info("pdf fact sheets disabled")
	}

	loader := dataset.NewLoader(dataset.NewFetcher(cfg.FetchTimeout, logger), logger)
	store := pipeline.NewStore()
	sources := dataset.Sources{
		Disasters: cfg.DatasetPath,
		Districts: cfg.DistrictsPath,
		Geometry:  cfg.GeometryPath,
	}

	p := pipeline.New(loader, sources, store, publisher, logger, metrics)
	svc := pipeline.NewService(store, cfg.CacheSize, cfg.ThresholdStrategy, logger, metrics)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:               cfg.HTTPAddr,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PDF:                renderer,
	}, p, svc, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load the dataset once. On failure the service keeps serving 503s.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("dataset load error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
