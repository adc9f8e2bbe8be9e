// Package crm manages the tenant's customer book and its reseller agents.
// Customers are available on every plan; agents and their balance top-ups
// are gated by plan features.
package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/inkwellhq/inkwell/pkg/scopedb"
)

const (
	CustomersCollection    = "customers"
	AgentsCollection       = "agents"
	TransactionsCollection = "agent_transactions"
)

// Customer is an end buyer of the tenant's print shop.
type Customer struct {
	ID             string    `bson:"_id" json:"id"`
	OrganizationID string    `bson:"organization_id" json:"-"`
	Name           string    `bson:"name" json:"name"`
	Email          string    `bson:"email,omitempty" json:"email,omitempty"`
	Phone          string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Company        string    `bson:"company,omitempty" json:"company,omitempty"`
	Tags           []string  `bson:"tags,omitempty" json:"tags,omitempty"`
	Notes          string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updatedAt"`
}

// Agent is a reseller who places orders on behalf of customers against a
// prepaid balance.
type Agent struct {
	ID                string    `bson:"_id" json:"id"`
	OrganizationID    string    `bson:"organization_id" json:"-"`
	Name              string    `bson:"name" json:"name"`
	Email             string    `bson:"email" json:"email"`
	CommissionPercent int64     `bson:"commission_percent" json:"commissionPercent"`
	BalanceCents      int64     `bson:"balance_cents" json:"balanceCents"`
	Active            bool      `bson:"active" json:"active"`
	CreatedAt         time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updatedAt"`
}

// Transaction is one entry in an agent's balance ledger. The balance on the
// Agent document is always the sum of its transactions; the two are written
// in the same database transaction.
type Transaction struct {
	ID             string    `bson:"_id" json:"id"`
	OrganizationID string    `bson:"organization_id" json:"-"`
	AgentID        string    `bson:"agent_id" json:"agentId"`
	AmountCents    int64     `bson:"amount_cents" json:"amountCents"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
}

// ListParams pages a customer or agent listing.
type ListParams struct {
	Search  string
	Page    int64
	PerPage int64
}

// Store persists customers and agents for one organization.
type Store interface {
	ListCustomers(ctx context.Context, params ListParams) ([]Customer, int64, error)
	GetCustomer(ctx context.Context, id string) (Customer, error)
	CreateCustomer(ctx context.Context, c Customer) error
	UpdateCustomer(ctx context.Context, c Customer) error
	DeleteCustomer(ctx context.Context, id string) error

	ListAgents(ctx context.Context, params ListParams) ([]Agent, int64, error)
	GetAgent(ctx context.Context, id string) (Agent, error)
	CreateAgent(ctx context.Context, a Agent) error
	UpdateAgent(ctx context.Context, a Agent) error
	// TopUpAgent increments an agent's balance and records the matching
	// ledger entry atomically.
	TopUpAgent(ctx context.Context, id string, amountCents int64, at time.Time) error
	ListAgentTransactions(ctx context.Context, agentID string, params ListParams) ([]Transaction, int64, error)
}

type mongoStore struct {
	scoped       *scopedb.Client
	customers    *scopedb.Collection
	agents       *scopedb.Collection
	transactions *scopedb.Collection
}

// NewMongoStore returns a Store over the scoped client's crm collections.
func NewMongoStore(scoped *scopedb.Client) Store {
	if scoped == nil {
		panic("crm: scoped client is required")
	}
	return &mongoStore{
		scoped:       scoped,
		customers:    scoped.Collection(CustomersCollection),
		agents:       scoped.Collection(AgentsCollection),
		transactions: scoped.Collection(TransactionsCollection),
	}
}

func listPage[T any](ctx context.Context, coll *scopedb.Collection, filter bson.M, params ListParams) ([]T, int64, error) {
	total, err := coll.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((params.Page - 1) * params.PerPage).
		SetLimit(params.PerPage)

	cursor, err := coll.FindMany(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func searchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	return bson.M{"name": bson.M{"$regex": search, "$options": "i"}}
}

func (s *mongoStore) ListCustomers(ctx context.Context, params ListParams) ([]Customer, int64, error) {
	return listPage[Customer](ctx, s.customers, searchFilter(params.Search), params)
}

func (s *mongoStore) GetCustomer(ctx context.Context, id string) (Customer, error) {
	var c Customer
	if err := s.customers.FindByID(ctx, id).Decode(&c); err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (s *mongoStore) CreateCustomer(ctx context.Context, c Customer) error {
	_, err := s.customers.Create(ctx, c)
	return err
}

func (s *mongoStore) UpdateCustomer(ctx context.Context, c Customer) error {
	res, err := s.customers.Update(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"name":       c.Name,
		"email":      c.Email,
		"phone":      c.Phone,
		"company":    c.Company,
		"tags":       c.Tags,
		"notes":      c.Notes,
		"updated_at": c.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *mongoStore) DeleteCustomer(ctx context.Context, id string) error {
	res, err := s.customers.Delete(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *mongoStore) ListAgents(ctx context.Context, params ListParams) ([]Agent, int64, error) {
	return listPage[Agent](ctx, s.agents, searchFilter(params.Search), params)
}

func (s *mongoStore) GetAgent(ctx context.Context, id string) (Agent, error) {
	var a Agent
	if err := s.agents.FindByID(ctx, id).Decode(&a); err != nil {
		return Agent{}, err
	}
	return a, nil
}

func (s *mongoStore) CreateAgent(ctx context.Context, a Agent) error {
	_, err := s.agents.Create(ctx, a)
	return err
}

func (s *mongoStore) UpdateAgent(ctx context.Context, a Agent) error {
	res, err := s.agents.Update(ctx, bson.M{"_id": a.ID}, bson.M{"$set": bson.M{
		"name":               a.Name,
		"email":              a.Email,
		"commission_percent": a.CommissionPercent,
		"active":             a.Active,
		"updated_at":         a.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// TopUpAgent increments the agent's balance and inserts the ledger entry in
// one MongoDB transaction, so the balance can always be reconciled against
// the transaction history.
func (s *mongoStore) TopUpAgent(ctx context.Context, id string, amountCents int64, at time.Time) error {
	return s.scoped.WithTransaction(ctx, func(ctx context.Context) error {
		res, err := s.agents.Update(ctx, bson.M{"_id": id}, bson.M{
			"$inc": bson.M{"balance_cents": amountCents},
			"$set": bson.M{"updated_at": at},
		})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return mongo.ErrNoDocuments
		}

		_, err = s.transactions.Create(ctx, Transaction{
			ID:          uuid.NewString(),
			AgentID:     id,
			AmountCents: amountCents,
			CreatedAt:   at,
		})
		return err
	})
}

func (s *mongoStore) ListAgentTransactions(ctx context.Context, agentID string, params ListParams) ([]Transaction, int64, error) {
	return listPage[Transaction](ctx, s.transactions, bson.M{"agent_id": agentID}, params)
}
