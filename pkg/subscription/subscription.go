package subscription

import (
	"math"
	"time"

	"github.com/inkwellhq/inkwell/pkg/plan"
)

// Status represents the lifecycle state of a subscription.
type Status string

const (
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
)

// Subscription links an organization to a plan plus billing and trial
// lifecycle state. Each organization has at most one subscription, so the
// organization ID doubles as the document key.
//
// TrialEndsAt is the single authoritative trial-expiry field: both the
// read-time entitlement check and the expiry sweep consult it. For a
// trialing subscription CurrentPeriodEnd is set equal to TrialEndsAt at
// creation but is never used to decide expiry.
type Subscription struct {
	OrganizationID     string               `bson:"_id"`
	PlanSlug           string               `bson:"plan_slug"`
	Status             Status               `bson:"status"`
	BillingCycle       plan.BillingInterval `bson:"billing_cycle"`
	CurrentPeriodStart time.Time            `bson:"current_period_start"`
	CurrentPeriodEnd   time.Time            `bson:"current_period_end"`
	TrialEndsAt        *time.Time           `bson:"trial_ends_at,omitempty"`
	CanceledAt         *time.Time           `bson:"canceled_at,omitempty"`
	ProviderSubID      string               `bson:"provider_sub_id,omitempty"`
	ProviderCustomerID string               `bson:"provider_customer_id,omitempty"`
	CreatedAt          time.Time            `bson:"created_at"`
	UpdatedAt          time.Time            `bson:"updated_at"`
}

func (s *Subscription) IsTrialing() bool {
	return s.Status == StatusTrialing
}

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

func (s *Subscription) IsCanceled() bool {
	return s.Status == StatusCanceled
}

// IsTrialActiveAt reports whether the trial grants elevated access at the
// given instant: the subscription must still be trialing and the trial
// window must not have passed.
func (s *Subscription) IsTrialActiveAt(now time.Time) bool {
	return s.Status == StatusTrialing && s.TrialEndsAt != nil && now.Before(*s.TrialEndsAt)
}

// TrialDaysRemainingAt returns the number of days left in the trial at the
// given instant, rounding partial days up. Returns 0 once the trial is over
// or when the subscription never had one.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if !s.IsTrialActiveAt(now) {
		return 0
	}
	remaining := s.TrialEndsAt.Sub(now)
	return int(math.Ceil(remaining.Hours() / 24))
}
