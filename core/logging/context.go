package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ctxKey string

const runIDKey ctxKey = "run_id"

// NewRunID returns a fresh identifier for one fetch cycle.
func NewRunID() string {
	return uuid.NewString()
}

// ContextWithRunID stores the cycle's run id in the context.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run id from context if present.
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runIDKey).(string); ok {
		return v
	}
	return ""
}

// WithContext enriches logger with the run id carried by ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	rid := RunIDFromContext(ctx)
	if rid == "" {
		return logger
	}
	return logger.With().Str(FieldRunID, rid).Logger()
}

// FromContext returns the base logger enriched with ctx's run id.
func FromContext(ctx context.Context) zerolog.Logger {
	return WithContext(ctx, Base())
}
