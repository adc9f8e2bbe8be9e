package entitlement

import "context"

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithAccess stores a resolved access in the context so a request resolves
// entitlements once and downstream handlers reuse the result.
func WithAccess(ctx context.Context, access Access) context.Context {
	return context.WithValue(ctx, contextKey{}, access)
}

// FromContext retrieves a previously resolved access.
func FromContext(ctx context.Context) (Access, bool) {
	access, ok := ctx.Value(contextKey{}).(Access)
	return access, ok
}
