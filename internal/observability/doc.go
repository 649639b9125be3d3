// Package observability provides logging and metrics support for the
// event hub service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for ingest, duplicate checks, and risk assessment
//   - Context helpers for propagating observability data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("request_id", reqID).Msg("event submitted")
//
// Add event context to logger:
//
//	logger = observability.WithEventContext(logger, eventID, partition)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("eventhub")
//
// Record metrics:
//
//	metrics.RecordEventIngested("kafka")
//	metrics.RecordDuplicateCheck(3, 0.12)
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithEventID(ctx, eventID)
//
//	reqID := observability.RequestIDFromContext(ctx)
//	eventID := observability.EventIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request or ingest message identifier
//   - event_id: Event identifier
//   - partition: Workflow partition (staging, queue, verified)
//   - source: Ingest source (kafka, http)
//   - model: Risk assessment model name
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
