package requestid

import (
	"context"
	"log/slog"
)

// LoggerExtractor emits the context request ID as a "request_id" log
// attribute. Intended for logger.WithContextExtractors.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		requestID := FromContext(ctx)
		if requestID == "" {
			return slog.Attr{}, false
		}
		return slog.String("request_id", requestID), true
	}
}
