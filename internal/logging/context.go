package logging

import (
	"context"

	"go.uber.org/zap"
)

type requestCtxKey struct{}
type componentCtxKey struct{}

// WithRequestID attaches a request/cycle correlation ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, id)
}

// RequestIDFromContext returns the correlation ID, or "" if unset.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// WithComponent attaches a component name to the context.
func WithComponent(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, componentCtxKey{}, name)
}

// ComponentFromContext returns the component name, or "" if unset.
func ComponentFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(componentCtxKey{}).(string); ok {
		return name
	}
	return ""
}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request.id", id))
	}
	if name := ComponentFromContext(ctx); name != "" {
		fields = append(fields, zap.String("component", name))
	}
	return fields
}
