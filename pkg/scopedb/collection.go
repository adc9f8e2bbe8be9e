package scopedb

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// raw is the subset of *mongo.Collection the scoped layer delegates to.
// Keeping it as an interface lets tests verify argument rewriting without a
// running database.
type raw interface {
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	UpdateMany(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateManyOptions]) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter any, opts ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter any, opts ...options.Lister[options.CountOptions]) (int64, error)
	Aggregate(ctx context.Context, pipeline any, opts ...options.Lister[options.AggregateOptions]) (*mongo.Cursor, error)
}

// Collection is a tenant-scoped handle for one MongoDB collection. Every
// operation merges the bound organization ID into the caller's filter before
// delegating to the driver.
type Collection struct {
	raw   raw
	name  string
	orgID string
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// FindMany returns a cursor over the organization's documents matching
// filter. A nil filter matches everything the organization owns.
func (c *Collection) FindMany(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error) {
	scoped, err := scopeFilter(filter, c.orgID)
	if err != nil {
		return nil, err
	}
	return c.raw.Find(ctx, scoped, opts...)
}

// FindFirst returns the first of the organization's documents matching
// filter. Decode errors, including mongo.ErrNoDocuments, surface on the
// returned result.
func (c *Collection) FindFirst(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOneOptions]) (*mongo.SingleResult, error) {
	scoped, err := scopeFilter(filter, c.orgID)
	if err != nil {
		return nil, err
	}
	return c.raw.FindOne(ctx, scoped, opts...), nil
}

// FindByID looks up a document by its _id using a compound filter that
// includes the organization scope. The _id index still serves the lookup,
// and a document owned by a foreign organization decodes as
// mongo.ErrNoDocuments - indistinguishable from a genuine miss, so nothing
// leaks about foreign tenants' data.
func (c *Collection) FindByID(ctx context.Context, id string) *mongo.SingleResult {
	return c.raw.FindOne(ctx, bson.M{"_id": id, FieldOrganizationID: c.orgID})
}

// Create inserts doc with its organization_id forcibly set to the bound
// scope. Any organization claimed by the payload is discarded; this is the
// anti-spoofing guarantee for writes.
func (c *Collection) Create(ctx context.Context, doc any) (*mongo.InsertOneResult, error) {
	document, err := toDocument(doc)
	if err != nil {
		return nil, err
	}
	document[FieldOrganizationID] = c.orgID
	return c.raw.InsertOne(ctx, document)
}

// Update applies update to the first of the organization's documents
// matching filter. An update document that names the organization field
// fails with ErrCrossTenant; the scope is written once by Create and never
// rewritten.
func (c *Collection) Update(ctx context.Context, filter bson.M, update any) (*mongo.UpdateResult, error) {
	if err := verifyUpdate(update); err != nil {
		return nil, err
	}
	scoped, err := scopeFilter(filter, c.orgID)
	if err != nil {
		return nil, err
	}
	return c.raw.UpdateOne(ctx, scoped, update)
}

// UpdateMany applies update to all of the organization's documents matching
// filter. Update documents are checked the same way as in Update.
func (c *Collection) UpdateMany(ctx context.Context, filter bson.M, update any) (*mongo.UpdateResult, error) {
	if err := verifyUpdate(update); err != nil {
		return nil, err
	}
	scoped, err := scopeFilter(filter, c.orgID)
	if err != nil {
		return nil, err
	}
	return c.raw.UpdateMany(ctx, scoped, update)
}

// Delete removes the first of the organization's documents matching filter.
func (c *Collection) Delete(ctx context.Context, filter bson.M) (*mongo.DeleteResult, error) {
	scoped, err := scopeFilter(filter, c.orgID)
	if err != nil {
		return nil, err
	}
	return c.raw.DeleteOne(ctx, scoped)
}

// DeleteMany removes all of the organization's documents matching filter.
func (c *Collection) DeleteMany(ctx context.Context, filter bson.M) (*mongo.DeleteResult, error) {
	scoped, err := scopeFilter(filter, c.orgID)
	if err != nil {
		return nil, err
	}
	return c.raw.DeleteMany(ctx, scoped)
}

// Count returns the number of the organization's documents matching filter.
func (c *Collection) Count(ctx context.Context, filter bson.M) (int64, error) {
	scoped, err := scopeFilter(filter, c.orgID)
	if err != nil {
		return 0, err
	}
	return c.raw.CountDocuments(ctx, scoped)
}

// Aggregate runs pipeline with a $match on the organization scope prepended,
// so every later stage only ever sees the organization's documents.
func (c *Collection) Aggregate(ctx context.Context, pipeline mongo.Pipeline, opts ...options.Lister[options.AggregateOptions]) (*mongo.Cursor, error) {
	scoped := make(mongo.Pipeline, 0, len(pipeline)+1)
	scoped = append(scoped, bson.D{{Key: "$match", Value: bson.M{FieldOrganizationID: c.orgID}}})
	scoped = append(scoped, pipeline...)
	return c.raw.Aggregate(ctx, scoped, opts...)
}
