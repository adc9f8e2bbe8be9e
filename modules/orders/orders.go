// Package orders manages the tenant's order book: quotes, confirmed print
// orders with a production status workflow, and invoices derived from them.
package orders

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/inkwellhq/inkwell/pkg/scopedb"
)

// CollectionName is the mongo collection backing orders and quotes.
const CollectionName = "orders"

// Kind separates quotes from confirmed orders. Quotes do not count against
// the plan's order quota until converted.
type Kind string

const (
	KindQuote Kind = "quote"
	KindOrder Kind = "order"
)

// Status is an order's position in the production workflow.
type Status string

const (
	StatusDraft        Status = "draft" // quotes only
	StatusPending      Status = "pending"
	StatusInProduction Status = "in_production"
	StatusShipped      Status = "shipped"
	StatusCompleted    Status = "completed"
	StatusCanceled     Status = "canceled"
)

// transitions lists the allowed next statuses for each status. Terminal
// statuses have no entries.
var transitions = map[Status][]Status{
	StatusDraft:        {StatusPending, StatusCanceled},
	StatusPending:      {StatusInProduction, StatusCanceled},
	StatusInProduction: {StatusShipped, StatusCompleted, StatusCanceled},
	StatusShipped:      {StatusCompleted, StatusCanceled},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LineItem is a single product position on an order.
type LineItem struct {
	ProductID   string `bson:"product_id" json:"productId"`
	Description string `bson:"description" json:"description"`
	Quantity    int64  `bson:"quantity" json:"quantity"`
	UnitCents   int64  `bson:"unit_cents" json:"unitCents"`
}

// Total returns the line total in cents.
func (li LineItem) Total() int64 {
	return li.Quantity * li.UnitCents
}

// Order is a quote or confirmed order owned by a single organization.
type Order struct {
	ID             string     `bson:"_id" json:"id"`
	OrganizationID string     `bson:"organization_id" json:"-"`
	Number         string     `bson:"number" json:"number"`
	Kind           Kind       `bson:"kind" json:"kind"`
	Status         Status     `bson:"status" json:"status"`
	CustomerID     string     `bson:"customer_id,omitempty" json:"customerId,omitempty"`
	Items          []LineItem `bson:"items" json:"items"`
	TotalCents     int64      `bson:"total_cents" json:"totalCents"`
	Currency       string     `bson:"currency" json:"currency"`
	Notes          string     `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updatedAt"`
}

// Invoice is a billing document rendered from a confirmed order. Invoices
// are derived on demand, not stored.
type Invoice struct {
	OrderID    string     `json:"orderId"`
	Number     string     `json:"number"`
	IssuedAt   time.Time  `json:"issuedAt"`
	Items      []LineItem `json:"items"`
	TotalCents int64      `json:"totalCents"`
	Currency   string     `json:"currency"`
}

// ListParams narrows and pages an order listing.
type ListParams struct {
	Kind       Kind
	Status     Status
	CustomerID string
	Page       int64
	PerPage    int64
}

// Store persists orders for one organization.
type Store interface {
	List(ctx context.Context, params ListParams) ([]Order, int64, error)
	Get(ctx context.Context, id string) (Order, error)
	Create(ctx context.Context, o Order) error
	Update(ctx context.Context, o Order) error
	Delete(ctx context.Context, id string) error
}

type mongoStore struct {
	coll *scopedb.Collection
}

// NewMongoStore returns a Store over the scoped client's orders collection.
func NewMongoStore(scoped *scopedb.Client) Store {
	if scoped == nil {
		panic("orders: scoped client is required")
	}
	return &mongoStore{coll: scoped.Collection(CollectionName)}
}

func (s *mongoStore) List(ctx context.Context, params ListParams) ([]Order, int64, error) {
	filter := bson.M{}
	if params.Kind != "" {
		filter["kind"] = params.Kind
	}
	if params.Status != "" {
		filter["status"] = params.Status
	}
	if params.CustomerID != "" {
		filter["customer_id"] = params.CustomerID
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

	var out []Order
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *mongoStore) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	if err := s.coll.FindByID(ctx, id).Decode(&o); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *mongoStore) Create(ctx context.Context, o Order) error {
	_, err := s.coll.Create(ctx, o)
	return err
}

func (s *mongoStore) Update(ctx context.Context, o Order) error {
	res, err := s.coll.Update(ctx, bson.M{"_id": o.ID}, bson.M{"$set": bson.M{
		"kind":        o.Kind,
		"status":      o.Status,
		"customer_id": o.CustomerID,
		"items":       o.Items,
		"total_cents": o.TotalCents,
		"currency":    o.Currency,
		"notes":       o.Notes,
		"updated_at":  o.UpdatedAt,
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
