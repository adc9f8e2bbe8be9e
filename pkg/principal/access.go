package principal

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/inkwellhq/inkwell/pkg/scopedb"
)

// DataAccess picks the database access mode for the principal. The choice
// is made exactly once per request, from the server-side identity: super
// admins get unscoped access, everyone else gets a client locked to their
// organization. No flag can widen a scoped client afterwards.
func DataAccess(db *mongo.Database, p Principal) (scopedb.Access, error) {
	if p.IsSuperAdmin {
		return scopedb.NewAdmin(db), nil
	}
	if p.OrganizationID == (uuid.UUID{}) {
		return nil, ErrMissingOrganization
	}
	return scopedb.NewScoped(db, p.OrganizationID), nil
}

// ScopedFromContext is the request-handler shorthand: it pulls the
// principal from the context and returns a client scoped to its
// organization.
func ScopedFromContext(ctx context.Context, db *mongo.Database) (*scopedb.Client, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNotInContext
	}
	return ScopedAccess(db, p)
}

// ScopedAccess returns a tenant-scoped client for the principal, rejecting
// super admins. Handlers that must never run unscoped use this instead of
// DataAccess.
func ScopedAccess(db *mongo.Database, p Principal) (*scopedb.Client, error) {
	if p.IsSuperAdmin {
		return nil, ErrForbidden
	}
	if p.OrganizationID == (uuid.UUID{}) {
		return nil, ErrMissingOrganization
	}
	return scopedb.NewScoped(db, p.OrganizationID), nil
}
