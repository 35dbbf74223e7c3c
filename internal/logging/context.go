package logging

import (
	"context"
	"log/slog"

	"pullapod/internal/services"
)

// Keys shared by every package that logs.
const (
	FieldComponent     = "component"
	FieldCommand       = "command"
	FieldFeedID        = "feed_id"
	FieldFeedURL       = "feed_url"
	FieldPath          = "path"
	FieldCorrelationID = "correlation_id"
)

// ContextFields returns the command, feed id, and request id stored in ctx
// by the services context helpers.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if command, ok := services.CommandFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCommand, command))
	}
	if id, ok := services.FeedIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldFeedID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns logger carrying the ContextFields of ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(Args(fields...)...)
	}
	return logger
}
