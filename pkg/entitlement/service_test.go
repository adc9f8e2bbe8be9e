package entitlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/pkg/entitlement"
	"github.com/inkwellhq/inkwell/pkg/plan"
	"github.com/inkwellhq/inkwell/pkg/subscription"
)

// fakeSubs serves subscriptions from a map, keyed by organization ID.
type fakeSubs struct {
	subs map[string]*subscription.Subscription
	err  error
}

func (f *fakeSubs) Get(_ context.Context, orgID string) (*subscription.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.subs[orgID]
	if !ok {
		return nil, subscription.ErrNotFound
	}
	return sub, nil
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newResolver(t *testing.T, subs entitlement.SubscriptionSource, opts ...entitlement.Option) *entitlement.Service {
	t.Helper()
	opts = append(opts, entitlement.WithClock(func() time.Time { return testNow }))
	svc, err := entitlement.NewService(context.Background(), plan.Builtin(), subs, opts...)
	require.NoError(t, err)
	return svc
}

func TestResolveWithoutSubscriptionFallsBackToBasic(t *testing.T) {
	t.Parallel()

	svc := newResolver(t, &fakeSubs{})
	access := svc.Resolve(context.Background(), uuid.New())

	assert.Equal(t, plan.BasicSlug, access.PlanSlug)
	assert.NotEmpty(t, access.Features, "fallback must never be an empty feature map")
	assert.True(t, access.Can(plan.FeatureDepartments))
	assert.False(t, access.Can(plan.FeatureAgents))
	assert.EqualValues(t, 5, access.Limits.MaxUsers)
	assert.False(t, access.Trial.IsActive)
}

func TestResolveStoreFailureFallsBackToBasic(t *testing.T) {
	t.Parallel()

	svc := newResolver(t, &fakeSubs{err: errors.New("connection reset")})
	access := svc.Resolve(context.Background(), uuid.New())

	assert.Equal(t, plan.BasicSlug, access.PlanSlug)
	assert.True(t, access.Can(plan.FeatureOrders))
}

func TestResolveActiveTrialGrantsProTier(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	endsAt := testNow.AddDate(0, 0, 5)
	svc := newResolver(t, &fakeSubs{subs: map[string]*subscription.Subscription{
		orgID.String(): {
			OrganizationID: orgID.String(),
			PlanSlug:       plan.BasicSlug, // subscribed tier stays Basic
			Status:         subscription.StatusTrialing,
			TrialEndsAt:    &endsAt,
		},
	}})

	access := svc.Resolve(context.Background(), orgID)

	assert.Equal(t, plan.ProSlug, access.PlanSlug)
	assert.True(t, access.Can(plan.FeatureAgents), "trial must grant Pro flags over the Basic plan")
	assert.EqualValues(t, 25, access.Limits.MaxUsers)
	assert.True(t, access.Trial.IsActive)
	assert.Equal(t, 5, access.Trial.DaysRemaining)
	require.NotNil(t, access.Trial.EndsAt)
	assert.True(t, access.Trial.EndsAt.Equal(endsAt))
}

func TestResolveLapsedTrialDemotesToBasePlan(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	endsAt := testNow.Add(-time.Hour)
	svc := newResolver(t, &fakeSubs{subs: map[string]*subscription.Subscription{
		orgID.String(): {
			OrganizationID: orgID.String(),
			PlanSlug:       plan.BasicSlug,
			Status:         subscription.StatusTrialing, // sweep has not run yet
			TrialEndsAt:    &endsAt,
		},
	}})

	access := svc.Resolve(context.Background(), orgID)

	assert.Equal(t, plan.BasicSlug, access.PlanSlug)
	assert.False(t, access.Can(plan.FeatureAgents))
	assert.False(t, access.Trial.IsActive)
	assert.Zero(t, access.Trial.DaysRemaining)
}

func TestResolveActiveSubscriptionUsesPlanFlags(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	svc := newResolver(t, &fakeSubs{subs: map[string]*subscription.Subscription{
		orgID.String(): {
			OrganizationID: orgID.String(),
			PlanSlug:       plan.BusinessSlug,
			Status:         subscription.StatusActive,
		},
	}})

	access := svc.Resolve(context.Background(), orgID)

	assert.Equal(t, plan.BusinessSlug, access.PlanSlug)
	assert.True(t, access.Can(plan.FeatureWhiteLabel))
	assert.EqualValues(t, plan.Unlimited, access.Limits.MaxOrders)
}

func TestResolveUnknownPlanFallsBackToBasic(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	svc := newResolver(t, &fakeSubs{subs: map[string]*subscription.Subscription{
		orgID.String(): {
			OrganizationID: orgID.String(),
			PlanSlug:       "legacy-gold",
			Status:         subscription.StatusActive,
		},
	}})

	access := svc.Resolve(context.Background(), orgID)
	assert.Equal(t, plan.BasicSlug, access.PlanSlug)
}

func TestCanClosedWorld(t *testing.T) {
	t.Parallel()

	svc := newResolver(t, &fakeSubs{})
	orgID := uuid.New()

	assert.False(t, svc.Can(context.Background(), orgID, plan.Feature("holograms")))
	assert.True(t, svc.Can(context.Background(), orgID, plan.FeatureProducts))
}

func TestRequireFeature(t *testing.T) {
	t.Parallel()

	svc := newResolver(t, &fakeSubs{})
	orgID := uuid.New()

	require.NoError(t, svc.RequireFeature(context.Background(), orgID, plan.FeatureOrders))
	err := svc.RequireFeature(context.Background(), orgID, plan.FeatureAgents)
	require.ErrorIs(t, err, entitlement.ErrFeatureNotAvailable)
	assert.Contains(t, err.Error(), "agents")
}

func TestCheckUsageLimitUnlimitedNeverFails(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	svc := newResolver(t, &fakeSubs{subs: map[string]*subscription.Subscription{
		orgID.String(): {
			OrganizationID: orgID.String(),
			PlanSlug:       plan.BusinessSlug, // all limits -1
			Status:         subscription.StatusActive,
		},
	}}, entitlement.WithCounters(entitlement.CounterRegistry{
		plan.ResourceOrders: func(context.Context, uuid.UUID) (int64, error) {
			return 1_000_000, nil
		},
	}))

	require.NoError(t, svc.CheckUsageLimit(context.Background(), orgID, plan.ResourceOrders))
}

func TestCheckUsageLimitAtBoundary(t *testing.T) {
	t.Parallel()

	// Basic caps users at 5.
	tests := []struct {
		name    string
		current int64
		wantErr bool
	}{
		{name: "one below the cap", current: 4},
		{name: "at the cap", current: 5, wantErr: true},
		{name: "over the cap", current: 6, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			orgID := uuid.New()
			svc := newResolver(t, &fakeSubs{}, entitlement.WithCounters(entitlement.CounterRegistry{
				plan.ResourceUsers: func(context.Context, uuid.UUID) (int64, error) {
					return tt.current, nil
				},
			}))

			err := svc.CheckUsageLimit(context.Background(), orgID, plan.ResourceUsers)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			var limitErr *entitlement.UsageLimitExceededError
			require.ErrorAs(t, err, &limitErr)
			assert.Equal(t, plan.ResourceUsers, limitErr.Resource)
			assert.EqualValues(t, 5, limitErr.Limit)
			assert.Equal(t, tt.current, limitErr.Current)
		})
	}
}

func TestCheckUsageLimitWithoutCounter(t *testing.T) {
	t.Parallel()

	svc := newResolver(t, &fakeSubs{})

	err := svc.CheckUsageLimit(context.Background(), uuid.New(), plan.ResourceUsers)
	require.ErrorIs(t, err, entitlement.ErrNoCounterRegistered)
}

func TestCheckUsageLimitCounterFailure(t *testing.T) {
	t.Parallel()

	svc := newResolver(t, &fakeSubs{}, entitlement.WithCounters(entitlement.CounterRegistry{
		plan.ResourceUsers: func(context.Context, uuid.UUID) (int64, error) {
			return 0, errors.New("timeout")
		},
	}))

	err := svc.CheckUsageLimit(context.Background(), uuid.New(), plan.ResourceUsers)
	require.ErrorIs(t, err, entitlement.ErrFailedToCountUsage)
}

func TestUsageSummary(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	svc := newResolver(t, &fakeSubs{}, entitlement.WithCounters(entitlement.CounterRegistry{
		plan.ResourceUsers:    func(context.Context, uuid.UUID) (int64, error) { return 3, nil },
		plan.ResourceProducts: func(context.Context, uuid.UUID) (int64, error) { return 0, errors.New("boom") },
	}))

	usage := svc.Usage(context.Background(), orgID)

	assert.Equal(t, entitlement.UsageInfo{Current: 3, Limit: 5}, usage[plan.ResourceUsers])
	assert.Equal(t, entitlement.UsageInfo{Current: 0, Limit: 50}, usage[plan.ResourceProducts])
}

func TestCanDowngrade(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	svc := newResolver(t, &fakeSubs{}, entitlement.WithCounters(entitlement.CounterRegistry{
		plan.ResourceProducts: func(context.Context, uuid.UUID) (int64, error) { return 200, nil },
	}))

	// Basic caps products at 50; 200 existing products block the downgrade.
	err := svc.CanDowngrade(context.Background(), orgID, plan.BasicSlug)
	require.ErrorIs(t, err, entitlement.ErrDowngradeNotPossible)

	require.NoError(t, svc.CanDowngrade(context.Background(), orgID, plan.BusinessSlug))
}

func TestAccessContextRoundTrip(t *testing.T) {
	t.Parallel()

	access := entitlement.Access{PlanSlug: plan.ProSlug}
	ctx := entitlement.WithAccess(context.Background(), access)

	got, ok := entitlement.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, plan.ProSlug, got.PlanSlug)

	_, ok = entitlement.FromContext(context.Background())
	assert.False(t, ok)
}
