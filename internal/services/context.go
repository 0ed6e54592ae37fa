package services

import "context"

type contextKey string

const (
	externalIDKey contextKey = "external_id"
	stepKey       contextKey = "step"
	requestIDKey  contextKey = "request_id"
)

// WithExternalID annotates context with the provider title identifier being processed.
func WithExternalID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, externalIDKey, id)
}

// ExternalIDFromContext extracts the provider title identifier if present.
func ExternalIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(externalIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStep annotates context with the pipeline step name (fetch, graph, seasons).
func WithStep(ctx context.Context, step string) context.Context {
	if step == "" {
		return ctx
	}
	return context.WithValue(ctx, stepKey, step)
}

// StepFromContext returns the step name if present.
func StepFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stepKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
