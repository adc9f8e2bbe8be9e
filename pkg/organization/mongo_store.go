package organization

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/inkwellhq/inkwell/pkg/scopedb"
)

// CollectionName is the collection organizations are stored in. The
// collection is platform-level, so it is accessed through scopedb.Admin
// rather than a scoped client.
const CollectionName = "organizations"

type document struct {
	ID           string    `bson:"_id"`
	Slug         string    `bson:"slug"`
	Name         string    `bson:"name"`
	LogoURL      string    `bson:"logo_url,omitempty"`
	BillingEmail string    `bson:"billing_email"`
	Active       bool      `bson:"active"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d document) toOrganization() (*Organization, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	return &Organization{
		ID:           id,
		Slug:         d.Slug,
		Name:         d.Name,
		LogoURL:      d.LogoURL,
		BillingEmail: d.BillingEmail,
		Active:       d.Active,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

func toDocument(org *Organization) document {
	return document{
		ID:           org.ID.String(),
		Slug:         org.Slug,
		Name:         org.Name,
		LogoURL:      org.LogoURL,
		BillingEmail: org.BillingEmail,
		Active:       org.Active,
		CreatedAt:    org.CreatedAt,
		UpdatedAt:    org.UpdatedAt,
	}
}

// MongoStore persists organizations and implements Provider for the
// resolution middleware.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a store backed by the organizations collection.
func NewMongoStore(admin *scopedb.Admin) *MongoStore {
	if admin == nil {
		panic("organization: admin database access is required")
	}
	return &MongoStore{coll: admin.Collection(CollectionName)}
}

// EnsureIndexes creates the unique slug index. Call once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// GetByIdentifier accepts either a UUID string or a slug.
func (s *MongoStore) GetByIdentifier(ctx context.Context, identifier string) (*Organization, error) {
	filter := bson.M{"slug": identifier}
	if _, err := uuid.Parse(identifier); err == nil {
		filter = bson.M{"_id": identifier}
	}

	var doc document
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.toOrganization()
}

// GetByID loads an organization by its UUID.
func (s *MongoStore) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	var doc document
	if err := s.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.toOrganization()
}

// SlugExists reports whether any organization already uses the slug.
func (s *MongoStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"slug": slug})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts a new organization. A duplicate slug surfaces as
// ErrSlugTaken.
func (s *MongoStore) Create(ctx context.Context, org *Organization) error {
	_, err := s.coll.InsertOne(ctx, toDocument(org))
	if mongo.IsDuplicateKeyError(err) {
		return ErrSlugTaken
	}
	return err
}

// Update replaces the stored record.
func (s *MongoStore) Update(ctx context.Context, org *Organization) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": org.ID.String()}, toDocument(org))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
