package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
)

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// Ctx is shorthand for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithRequestID tags ctx and its logger with an HTTP request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithField(ctx, "request_id", requestID)
}

// RequestID returns the request id stored in ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithField adds one field to the logger carried by ctx.
func WithField(ctx context.Context, key string, value any) context.Context {
	logger := addField(FromContext(ctx).With(), key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithFields adds several fields to the logger carried by ctx.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	lc := FromContext(ctx).With()
	for k, v := range fields {
		lc = addField(lc, k, v)
	}
	logger := lc.Logger()
	return WithLogger(ctx, &logger)
}

// WithClient tags the logger with a client address.
func WithClient(ctx context.Context, address string) context.Context {
	return WithField(ctx, "client", address)
}

// WithModule tags the logger with a raw module id.
func WithModule(ctx context.Context, moduleID string) context.Context {
	return WithField(ctx, "module", moduleID)
}

// WithComponent tags the logger with the emitting component (feed, catalog, engine, server).
func WithComponent(ctx context.Context, component string) context.Context {
	return WithField(ctx, "component", component)
}

// WithOperation tags the logger with an operation name.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}

// WithError attaches err; a nil err leaves ctx unchanged.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return WithField(ctx, "error", err)
}
