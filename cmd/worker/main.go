// Package main provides the entry point for the Event Hub background worker.
// The worker runs the Kafka intake listener and the risk assessment loop.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/arcticMV/frf-event-hub-sub000/internal/ai"
	"github.com/arcticMV/frf-event-hub-sub000/internal/config"
	"github.com/arcticMV/frf-event-hub-sub000/internal/database"
	"github.com/arcticMV/frf-event-hub-sub000/internal/dedup"
	"github.com/arcticMV/frf-event-hub-sub000/internal/ingest"
	"github.com/arcticMV/frf-event-hub-sub000/internal/observability"
	"github.com/arcticMV/frf-event-hub-sub000/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "worker").Logger()
	logger.Info().Msg("event-hub worker starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Create repositories.
	eventRepo := repository.NewPgEventRepository(db)
	assessmentRepo := repository.NewPgAssessmentRepository(db)

	// Set up metrics.
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("eventhub_worker")
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 3)

	// Start the Kafka intake listener if configured. The gate runs the strict
	// duplicate-check preset so only likely duplicates are rejected.
	var listener *ingest.Listener
	if cfg.Kafka.Enabled {
		gateOpts := dedup.Options{
			TitleThreshold:    cfg.Dedup.TitleThreshold,
			DateProximityDays: cfg.Dedup.DateProximityDays,
			MinimumScore:      cfg.Dedup.StrictMinimumScore,
			MaxResults:        cfg.Dedup.MaxResults,
		}
		gate := ingest.NewGate(eventRepo, ingest.GateConfig{
			Options:    gateOpts,
			FetchLimit: cfg.Dedup.FetchLimit,
			Enabled:    cfg.Dedup.Enabled,
		}, metrics, logger)

		listener = ingest.NewListener(ingest.ListenerConfig{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Kafka.Topic,
			GroupID:        cfg.Kafka.GroupID,
			MinBytes:       cfg.Kafka.MinBytes,
			MaxBytes:       cfg.Kafka.MaxBytes,
			CommitInterval: cfg.Kafka.CommitInterval,
		}, gate, metrics, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("ingest listener error: %w", err)
			}
		}()
	} else {
		logger.Info().Msg("kafka intake disabled")
	}

	// Start the assessment loop if configured.
	if cfg.AI.Enabled {
		analyzer := ai.NewOpenAIAnalyzer(cfg.AI, metrics, logger)
		assessor := ingest.NewAssessor(eventRepo, assessmentRepo, analyzer, ingest.AssessorConfig{
			Interval:  cfg.Ingest.AssessInterval,
			BatchSize: cfg.Ingest.AssessBatchSize,
		}, metrics, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := assessor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("assessor error: %w", err)
			}
		}()
	} else {
		logger.Info().Msg("risk assessment disabled")
	}

	// Expose worker metrics if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	logger.Info().Msg("event-hub worker is ready")

	// Wait for shutdown signal or a fatal loop error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("worker error")
		stop()
		waitAndClose(&wg, listener, metricsServer, logger)
		return err
	}

	waitAndClose(&wg, listener, metricsServer, logger)
	logger.Info().Msg("event-hub worker shutdown complete")
	return nil
}

// waitAndClose drains the worker loops and closes external resources.
func waitAndClose(wg *sync.WaitGroup, listener *ingest.Listener, metricsServer *http.Server, logger zerolog.Logger) {
	if listener != nil {
		if err := listener.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close ingest listener")
		}
	}

	wg.Wait()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}
}
