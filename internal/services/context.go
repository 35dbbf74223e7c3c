package services

import "context"

type contextKey int

const (
	commandKey contextKey = iota
	feedIDKey
	requestIDKey
)

// WithCommand records the CLI command name ("recent", "favorite add") on ctx.
// Blank names leave ctx untouched.
func WithCommand(ctx context.Context, command string) context.Context {
	if command == "" {
		return ctx
	}
	return context.WithValue(ctx, commandKey, command)
}

func CommandFromContext(ctx context.Context) (string, bool) {
	return nonZero[string](ctx, commandKey)
}

// WithFeedID records the Podcast Index feed the current operation targets.
func WithFeedID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, feedIDKey, id)
}

// FeedIDFromContext reports the feed id, including an explicit zero.
func FeedIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(feedIDKey).(int64)
	return id, ok
}

// WithRequestID records the correlation id shared by every log line of one
// invocation.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return nonZero[string](ctx, requestIDKey)
}

func nonZero[T comparable](ctx context.Context, key contextKey) (T, bool) {
	var zero T
	v, ok := ctx.Value(key).(T)
	if !ok || v == zero {
		return zero, false
	}
	return v, true
}
