package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
	"github.com/arcticMV/frf-event-hub-sub000/internal/observability"
)

// ListenerConfig holds configuration for the intake listener.
type ListenerConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic carrying inbound event submissions.
	Topic string
	// GroupID is the consumer group ID.
	GroupID string
	// MinBytes is the minimum batch size the consumer will accept.
	MinBytes int
	// MaxBytes is the maximum batch size the consumer will accept.
	MaxBytes int
	// CommitInterval is how often consumed offsets are committed.
	CommitInterval time.Duration
}

// Listener consumes event submissions from Kafka and feeds them through the
// ingest gate. Malformed and duplicate submissions are consumed and dropped;
// store failures are logged and the message is consumed anyway, since the
// submitting system is expected to retry through its own delivery guarantees.
type Listener struct {
	reader  *kafka.Reader
	gate    *Gate
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewListener creates a new intake listener. metrics may be nil.
func NewListener(cfg ListenerConfig, gate *Gate, metrics *observability.Metrics, logger zerolog.Logger) *Listener {
	minBytes := cfg.MinBytes
	if minBytes <= 0 {
		minBytes = 1
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10e6
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		MaxWait:        3 * time.Second,
		CommitInterval: cfg.CommitInterval,
	})

	return &Listener{
		reader:  reader,
		gate:    gate,
		metrics: metrics,
		logger:  logger.With().Str("component", "ingest_listener").Str("topic", cfg.Topic).Logger(),
	}
}

// Run starts the listener loop. Blocks until context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info().Msg("starting ingest listener")

	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info().Msg("ingest listener stopped via context cancellation")
				return ctx.Err()
			}
			l.logger.Error().Err(err).Msg("failed to read message from Kafka")
			continue
		}

		l.logger.Debug().
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("received event submission")

		l.handleMessage(ctx, msg.Value)
	}
}

// handleMessage decodes and admits one submission. Failures never stop the
// listener loop.
func (l *Listener) handleMessage(ctx context.Context, value []byte) {
	var sub InboundSubmission
	if err := json.Unmarshal(value, &sub); err != nil {
		if l.metrics != nil {
			l.metrics.RecordIngestFailure("malformed")
		}
		l.logger.Error().Err(err).
			Str("raw_value", string(value)).
			Msg("failed to unmarshal event submission")
		return
	}

	if _, err := l.gate.Admit(ctx, sub); err != nil {
		reason := "store"
		if errors.Is(err, domain.ErrInvalidInput) {
			reason = "invalid"
		}
		if l.metrics != nil {
			l.metrics.RecordIngestFailure(reason)
		}
		l.logger.Error().Err(err).
			Str("title", sub.Title).
			Str("source", sub.Source).
			Msg("failed to admit event submission")
	}
}

// Close closes the Kafka reader.
func (l *Listener) Close() error {
	l.logger.Info().Msg("closing ingest listener")
	return l.reader.Close()
}
