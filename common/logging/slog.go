package logging

import (
	"context"
	"log/slog"

	"github.com/coinagedev/coinage/common/keys"
)

type contextKey struct{}

// Inject returns a context carrying logger. Call it once at the top of a
// request or worker scope; everything below retrieves the logger with
// GetLoggerFromContext.
func Inject(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// GetLoggerFromContext returns the logger carried by ctx, or the process
// default when none was injected.
func GetLoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithAttrs narrows the scope's logger with attrs and re-injects it, so
// every later line in the scope carries them.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) (context.Context, *slog.Logger) {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	logger := GetLoggerFromContext(ctx).With(args...)
	return Inject(ctx, logger), logger
}

// WithAddress stamps the account address on the scope's logger.
func WithAddress(ctx context.Context, addr keys.Address) (context.Context, *slog.Logger) {
	return WithAttrs(ctx, slog.String("address", addr.String()))
}
