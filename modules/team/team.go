// Package team manages an organization's staff roster. Seats count against
// the plan's user limit; mutations require the admin role.
package team

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/inkwellhq/inkwell/pkg/principal"
	"github.com/inkwellhq/inkwell/pkg/scopedb"
)

// CollectionName is the mongo collection backing the staff roster.
const CollectionName = "members"

// Member is one staff seat in an organization.
type Member struct {
	ID             string         `bson:"_id" json:"id"`
	OrganizationID string         `bson:"organization_id" json:"-"`
	Name           string         `bson:"name" json:"name"`
	Email          string         `bson:"email" json:"email"`
	Role           principal.Role `bson:"role" json:"role"`
	Active         bool           `bson:"active" json:"active"`
	CreatedAt      time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `bson:"updated_at" json:"updatedAt"`
}

// ListParams pages a roster listing.
type ListParams struct {
	Role    principal.Role
	Page    int64
	PerPage int64
}

// Store persists staff members for one organization.
type Store interface {
	List(ctx context.Context, params ListParams) ([]Member, int64, error)
	Get(ctx context.Context, id string) (Member, error)
	Create(ctx context.Context, m Member) error
	Update(ctx context.Context, m Member) error
	Delete(ctx context.Context, id string) error
	// CountByRole returns the number of active members holding the role.
	CountByRole(ctx context.Context, role principal.Role) (int64, error)
}

type mongoStore struct {
	coll *scopedb.Collection
}

// NewMongoStore returns a Store over the scoped client's members collection.
func NewMongoStore(scoped *scopedb.Client) Store {
	if scoped == nil {
		panic("team: scoped client is required")
	}
	return &mongoStore{coll: scoped.Collection(CollectionName)}
}

func (s *mongoStore) List(ctx context.Context, params ListParams) ([]Member, int64, error) {
	filter := bson.M{}
	if params.Role != "" {
		filter["role"] = params.Role
	}

	total, err := s.coll.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip((params.Page - 1) * params.PerPage).
		SetLimit(params.PerPage)

	cursor, err := s.coll.FindMany(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var out []Member
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *mongoStore) Get(ctx context.Context, id string) (Member, error) {
	var m Member
	if err := s.coll.FindByID(ctx, id).Decode(&m); err != nil {
		return Member{}, err
	}
	return m, nil
}

func (s *mongoStore) Create(ctx context.Context, m Member) error {
	_, err := s.coll.Create(ctx, m)
	return err
}

func (s *mongoStore) Update(ctx context.Context, m Member) error {
	res, err := s.coll.Update(ctx, bson.M{"_id": m.ID}, bson.M{"$set": bson.M{
		"name":       m.Name,
		"role":       m.Role,
		"active":     m.Active,
		"updated_at": m.UpdatedAt,
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

func (s *mongoStore) CountByRole(ctx context.Context, role principal.Role) (int64, error) {
	return s.coll.Count(ctx, bson.M{"role": role, "active": true})
}
