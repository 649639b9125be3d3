package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	eventIDKey   contextKey = "event_id"
	partitionKey contextKey = "partition"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithEventID adds an event ID to the context.
func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, eventIDKey, eventID)
}

// EventIDFromContext retrieves the event ID from context.
// Returns empty string if not present.
func EventIDFromContext(ctx context.Context) string {
	if v := ctx.Value(eventIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithPartition adds a workflow partition to the context.
func WithPartition(ctx context.Context, partition string) context.Context {
	return context.WithValue(ctx, partitionKey, partition)
}

// PartitionFromContext retrieves the workflow partition from context.
// Returns empty string if not present.
func PartitionFromContext(ctx context.Context) string {
	if v := ctx.Value(partitionKey); v != nil {
		if p, ok := v.(string); ok {
			return p
		}
	}
	return ""
}

// RequestContext contains all the context data for a request.
type RequestContext struct {
	RequestID string
	EventID   string
	Partition string
}

// WithRequestContextFull adds all request context to the context.
func WithRequestContextFull(ctx context.Context, rc RequestContext) context.Context {
	if rc.RequestID != "" {
		ctx = WithRequestID(ctx, rc.RequestID)
	}
	if rc.EventID != "" {
		ctx = WithEventID(ctx, rc.EventID)
	}
	if rc.Partition != "" {
		ctx = WithPartition(ctx, rc.Partition)
	}
	return ctx
}

// RequestContextFromContext extracts all request context from the context.
func RequestContextFromContext(ctx context.Context) RequestContext {
	return RequestContext{
		RequestID: RequestIDFromContext(ctx),
		EventID:   EventIDFromContext(ctx),
		Partition: PartitionFromContext(ctx),
	}
}
