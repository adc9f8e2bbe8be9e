package scopedb

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// FieldOrganizationID is the document field that partitions every
// tenant-owned collection.
const FieldOrganizationID = "organization_id"

// Access is the request-boundary choice between tenant-scoped and platform
// data access. Exactly two types implement it: *Client (scoped to one
// organization) and *Admin (unscoped, platform operators only). Modeling the
// choice as a closed sum keeps "always scoped unless explicitly unscoped"
// structural rather than convention-based.
type Access interface {
	sealedAccess()
}

// Client is a data-access facade bound to a single organization. All
// operations issued through it are constrained to that organization's
// documents. The zero value is not usable; construct with NewScoped.
type Client struct {
	db    *mongo.Database
	orgID string
}

// NewScoped returns a Client bound to the given organization. The caller is
// responsible for resolving orgID from an authenticated principal; this
// layer performs no authentication of its own.
func NewScoped(db *mongo.Database, orgID uuid.UUID) *Client {
	return &Client{db: db, orgID: orgID.String()}
}

func (*Client) sealedAccess() {}

// OrganizationID returns the bound organization ID.
func (c *Client) OrganizationID() string { return c.orgID }

// Collection returns a scoped handle for the named collection.
func (c *Client) Collection(name string) *Collection {
	return &Collection{raw: c.db.Collection(name), name: name, orgID: c.orgID}
}

// WithTransaction runs fn inside a MongoDB transaction. Operations issued
// through this client with the callback's context participate in the
// transaction and remain scoped; there is no way to attach an unscoped
// sub-operation to a scoped transaction through this client.
func (c *Client) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := c.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// Admin is unscoped data access for platform operators and platform-owned
// collections (plans, subscriptions, organizations). It must never be
// constructed for a tenant principal; see principal.DataAccess.
type Admin struct {
	db *mongo.Database
}

// NewAdmin returns unscoped access to the database.
func NewAdmin(db *mongo.Database) *Admin {
	return &Admin{db: db}
}

func (*Admin) sealedAccess() {}

// Collection returns the raw driver collection without any scoping.
func (a *Admin) Collection(name string) *mongo.Collection {
	return a.db.Collection(name)
}

// Database exposes the underlying database handle.
func (a *Admin) Database() *mongo.Database { return a.db }
