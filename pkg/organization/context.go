package organization

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// contextKey prevents collisions with other packages using context values
type contextKey struct{}

func WithOrganization(ctx context.Context, org *Organization) context.Context {
	return context.WithValue(ctx, contextKey{}, org)
}

func FromContext(ctx context.Context) (*Organization, bool) {
	org, ok := ctx.Value(contextKey{}).(*Organization)
	return org, ok
}

// IDFromContext provides fast access to the organization ID without exposing
// the full record.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	org, ok := FromContext(ctx)
	if !ok || org == nil {
		return uuid.UUID{}, false
	}
	return org.ID, true
}

// MustFromContext panics if no organization is found. Use only in handlers
// behind the Require middleware.
func MustFromContext(ctx context.Context) *Organization {
	org, ok := FromContext(ctx)
	if !ok || org == nil {
		panic("organization: no organization in context")
	}
	return org
}

// LoggerExtractor returns a function that enriches log records with the
// organization ID when one is present in the context.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("organization_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}
