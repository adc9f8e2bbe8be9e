package subscription

import (
	"context"
	"time"
)

// Store defines subscription persistence. Subscriptions are platform-owned
// records keyed by organization ID, so implementations use unscoped access.
type Store interface {
	// Get retrieves an organization's subscription.
	// Returns ErrNotFound if none exists.
	Get(ctx context.Context, orgID string) (*Subscription, error)

	// Save creates or updates a subscription, keyed by organization ID.
	Save(ctx context.Context, sub *Subscription) error

	// ExpireTrials transitions every trialing subscription whose trial window
	// has passed to StatusExpired and returns how many were updated. This is
	// the authoritative expiry write; the entitlement resolver derives the
	// same answer at read time from trial_ends_at without writing.
	ExpireTrials(ctx context.Context, now time.Time) (int64, error)

	// ListTrialsEndingBy returns trialing subscriptions whose trial ends
	// between now and cutoff, for upgrade-reminder notifications.
	ListTrialsEndingBy(ctx context.Context, now, cutoff time.Time) ([]*Subscription, error)
}
