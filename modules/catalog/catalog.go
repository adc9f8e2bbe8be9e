// Package catalog manages the tenant's sellable product catalog: print
// products with base pricing and per-quantity price options.
package catalog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/inkwellhq/inkwell/pkg/scopedb"
)

// CollectionName is the mongo collection backing the product catalog.
const CollectionName = "products"

// PriceOption is a quantity-based price tier for a product, e.g.
// 100 business cards for $24.00.
type PriceOption struct {
	Label      string `bson:"label" json:"label"`
	Quantity   int64  `bson:"quantity" json:"quantity"`
	PriceCents int64  `bson:"price_cents" json:"priceCents"`
}

// Product is a catalog entry owned by a single organization.
type Product struct {
	ID             string        `bson:"_id" json:"id"`
	OrganizationID string        `bson:"organization_id" json:"-"`
	Name           string        `bson:"name" json:"name"`
	SKU            string        `bson:"sku" json:"sku"`
	Description    string        `bson:"description" json:"description"`
	Category       string        `bson:"category" json:"category"`
	PriceCents     int64         `bson:"price_cents" json:"priceCents"`
	Currency       string        `bson:"currency" json:"currency"`
	Options        []PriceOption `bson:"options,omitempty" json:"options,omitempty"`
	Active         bool          `bson:"active" json:"active"`
	CreatedAt      time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `bson:"updated_at" json:"updatedAt"`
}

// ListParams narrows and pages a product listing.
type ListParams struct {
	Category string
	Active   *bool
	Page     int64
	PerPage  int64
}

// Store persists products for one organization. Implementations carry the
// tenant scope; callers never pass an organization ID.
type Store interface {
	List(ctx context.Context, params ListParams) ([]Product, int64, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, id string) error
}

type mongoStore struct {
	coll *scopedb.Collection
}

// NewMongoStore returns a Store over the scoped client's products collection.
func NewMongoStore(scoped *scopedb.Client) Store {
	if scoped == nil {
		panic("catalog: scoped client is required")
	}
	return &mongoStore{coll: scoped.Collection(CollectionName)}
}

func (s *mongoStore) List(ctx context.Context, params ListParams) ([]Product, int64, error) {
	filter := bson.M{}
	if params.Category != "" {
		filter["category"] = params.Category
	}
	if params.Active != nil {
		filter["active"] = *params.Active
	}

	total, err := s.coll.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((params.Page - 1) * params.PerPage).
		SetLimit(params.PerPage)

	cursor, err := s.coll.FindMany(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var products []Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *mongoStore) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	if err := s.coll.FindByID(ctx, id).Decode(&p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *mongoStore) Create(ctx context.Context, p Product) error {
	_, err := s.coll.Create(ctx, p)
	return err
}

func (s *mongoStore) Update(ctx context.Context, p Product) error {
	res, err := s.coll.Update(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":        p.Name,
		"sku":         p.SKU,
		"description": p.Description,
		"category":    p.Category,
		"price_cents": p.PriceCents,
		"currency":    p.Currency,
		"options":     p.Options,
		"active":      p.Active,
		"updated_at":  p.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *mongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.Delete(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
