package principal

import (
	"context"
	"log/slog"
)

// contextKey prevents collisions with other packages using context values
type contextKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

// MustFromContext panics if no principal is found. Use only in handlers
// behind the Middleware.
func MustFromContext(ctx context.Context) Principal {
	p, ok := FromContext(ctx)
	if !ok {
		panic("principal: no principal in context")
	}
	return p
}

// LoggerExtractor returns a function that enriches log records with the
// authenticated user ID.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if p, ok := FromContext(ctx); ok {
			return slog.String("user_id", p.UserID.String()), true
		}
		return slog.Attr{}, false
	}
}
