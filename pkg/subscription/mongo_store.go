package subscription

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/inkwellhq/inkwell/pkg/scopedb"
)

// CollectionName is the platform collection holding subscriptions.
const CollectionName = "subscriptions"

type mongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns a Store backed by the platform database. It takes
// unscoped access deliberately: subscriptions are platform billing records
// keyed by organization, not tenant-owned documents.
func NewMongoStore(admin *scopedb.Admin) Store {
	return &mongoStore{coll: admin.Collection(CollectionName)}
}

func (s *mongoStore) Get(ctx context.Context, orgID string) (*Subscription, error) {
	var sub Subscription
	err := s.coll.FindOne(ctx, bson.M{"_id": orgID}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *mongoStore) Save(ctx context.Context, sub *Subscription) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": sub.OrganizationID},
		sub,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *mongoStore) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{
			"status":        StatusTrialing,
			"trial_ends_at": bson.M{"$lt": now},
		},
		bson.M{"$set": bson.M{
			"status":     StatusExpired,
			"updated_at": now,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *mongoStore) ListTrialsEndingBy(ctx context.Context, now, cutoff time.Time) ([]*Subscription, error) {
	cur, err := s.coll.Find(ctx, bson.M{
		"status":        StatusTrialing,
		"trial_ends_at": bson.M{"$gte": now, "$lte": cutoff},
	})
	if err != nil {
		return nil, err
	}
	var subs []*Subscription
	if err := cur.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}
