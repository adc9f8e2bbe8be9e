package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/pkg/plan"
	"github.com/inkwellhq/inkwell/pkg/subscription"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, orgID string) (*subscription.Subscription, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, sub *subscription.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockStore) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) ListTrialsEndingBy(ctx context.Context, now, cutoff time.Time) ([]*subscription.Subscription, error) {
	args := m.Called(ctx, now, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.Subscription), args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateCheckoutLink(ctx context.Context, req subscription.CheckoutRequest) (*subscription.CheckoutLink, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.CheckoutLink), args.Error(1)
}

func (m *mockProvider) GetCustomerPortalLink(ctx context.Context, sub *subscription.Subscription) (*subscription.PortalLink, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.PortalLink), args.Error(1)
}

func (m *mockProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*subscription.WebhookEvent, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.WebhookEvent), args.Error(1)
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store subscription.Store, opts ...subscription.Option) *subscription.Service {
	t.Helper()
	opts = append(opts, subscription.WithClock(func() time.Time { return testNow }))
	svc, err := subscription.NewService(context.Background(), plan.Builtin(), store, opts...)
	require.NoError(t, err)
	return svc
}

func TestStartTrialCreatesTrialingSubscription(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	store := &mockStore{}
	store.On("Get", mock.Anything, orgID.String()).Return(nil, subscription.ErrNotFound)
	store.On("Save", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
		return sub.OrganizationID == orgID.String() &&
			sub.Status == subscription.StatusTrialing &&
			sub.PlanSlug == plan.ProSlug &&
			sub.TrialEndsAt != nil &&
			sub.TrialEndsAt.Equal(testNow.AddDate(0, 0, 14)) &&
			sub.CurrentPeriodEnd.Equal(*sub.TrialEndsAt)
	})).Return(nil)

	svc := newTestService(t, store)

	sub, err := svc.StartTrial(context.Background(), orgID, plan.ProSlug)
	require.NoError(t, err)
	assert.True(t, sub.IsTrialing())
	assert.Equal(t, 14, sub.TrialDaysRemainingAt(testNow))
	store.AssertExpectations(t)
}

func TestStartTrialFreePlanActivatesImmediately(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	store := &mockStore{}
	store.On("Get", mock.Anything, orgID.String()).Return(nil, subscription.ErrNotFound)
	store.On("Save", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
		return sub.Status == subscription.StatusActive && sub.TrialEndsAt == nil
	})).Return(nil)

	svc := newTestService(t, store)

	sub, err := svc.StartTrial(context.Background(), orgID, plan.BasicSlug)
	require.NoError(t, err)
	assert.True(t, sub.IsActive())
}

func TestStartTrialRejectsSecondSubscription(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	store := &mockStore{}
	store.On("Get", mock.Anything, orgID.String()).
		Return(&subscription.Subscription{OrganizationID: orgID.String()}, nil)

	svc := newTestService(t, store)

	_, err := svc.StartTrial(context.Background(), orgID, plan.ProSlug)
	require.ErrorIs(t, err, subscription.ErrAlreadyExists)
}

func TestStartTrialUnknownPlan(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &mockStore{})

	_, err := svc.StartTrial(context.Background(), uuid.New(), "platinum")
	require.ErrorIs(t, err, subscription.ErrPlanNotFound)
}

func TestCreateCheckoutLinkFreePlanSkipsProvider(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	store := &mockStore{}
	store.On("Get", mock.Anything, orgID.String()).Return(nil, subscription.ErrNotFound)
	store.On("Save", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
		return sub.Status == subscription.StatusActive && sub.PlanSlug == plan.BasicSlug
	})).Return(nil)

	svc := newTestService(t, store)

	link, err := svc.CreateCheckoutLink(context.Background(), orgID, plan.BasicSlug,
		subscription.CheckoutOptions{SuccessURL: "https://app.example.com/welcome"})
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/welcome", link.URL)
}

func TestCreateCheckoutLinkPaidPlanRequiresProvider(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	store := &mockStore{}
	store.On("Get", mock.Anything, orgID.String()).Return(nil, subscription.ErrNotFound)

	svc := newTestService(t, store)

	_, err := svc.CreateCheckoutLink(context.Background(), orgID, plan.ProSlug, subscription.CheckoutOptions{})
	require.ErrorIs(t, err, subscription.ErrBillingNotConfigured)
}

func TestCreateCheckoutLinkDelegatesToProvider(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	store := &mockStore{}
	store.On("Get", mock.Anything, orgID.String()).Return(nil, subscription.ErrNotFound)

	provider := &mockProvider{}
	provider.On("CreateCheckoutLink", mock.Anything, mock.MatchedBy(func(req subscription.CheckoutRequest) bool {
		return req.PriceID == "price_pro_monthly" && req.OrganizationID == orgID.String()
	})).Return(&subscription.CheckoutLink{URL: "https://pay.example.com/x"}, nil)

	svc := newTestService(t, store, subscription.WithBillingProvider(provider))

	link, err := svc.CreateCheckoutLink(context.Background(), orgID, plan.ProSlug, subscription.CheckoutOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/x", link.URL)
	provider.AssertExpectations(t)
}

func TestCreateCheckoutLinkRejectsActivePaidSubscription(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	store := &mockStore{}
	store.On("Get", mock.Anything, orgID.String()).Return(&subscription.Subscription{
		OrganizationID: orgID.String(),
		Status:         subscription.StatusActive,
		ProviderSubID:  "sub_123",
	}, nil)

	svc := newTestService(t, store, subscription.WithBillingProvider(&mockProvider{}))

	_, err := svc.CreateCheckoutLink(context.Background(), orgID, plan.ProSlug, subscription.CheckoutOptions{})
	require.ErrorIs(t, err, subscription.ErrAlreadyExists)
}

func TestHandleWebhookSubscriptionCreated(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	store := &mockStore{}
	store.On("Get", mock.Anything, orgID.String()).Return(nil, subscription.ErrNotFound)
	store.On("Save", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
		return sub.OrganizationID == orgID.String() &&
			sub.PlanSlug == plan.ProSlug &&
			sub.Status == subscription.StatusActive &&
			sub.ProviderSubID == "sub_42" &&
			sub.ProviderCustomerID == "ctm_7"
	})).Return(nil)

	provider := &mockProvider{}
	provider.On("ParseWebhook", mock.Anything, mock.Anything, mock.Anything).Return(&subscription.WebhookEvent{
		Type:               subscription.EventSubscriptionCreated,
		SubscriptionID:     "sub_42",
		OrganizationID:     orgID.String(),
		ProviderCustomerID: "ctm_7",
		Status:             "active",
		PriceID:            "price_pro_monthly",
	}, nil)

	svc := newTestService(t, store, subscription.WithBillingProvider(provider))

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))
	store.AssertExpectations(t)
}

func TestHandleWebhookCancellation(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	store := &mockStore{}
	store.On("Get", mock.Anything, orgID.String()).Return(&subscription.Subscription{
		OrganizationID: orgID.String(),
		Status:         subscription.StatusActive,
	}, nil)
	store.On("Save", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
		return sub.Status == subscription.StatusCanceled && sub.CanceledAt != nil
	})).Return(nil)

	provider := &mockProvider{}
	provider.On("ParseWebhook", mock.Anything, mock.Anything, mock.Anything).Return(&subscription.WebhookEvent{
		Type:           subscription.EventSubscriptionCanceled,
		OrganizationID: orgID.String(),
	}, nil)

	svc := newTestService(t, store, subscription.WithBillingProvider(provider))

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))
	store.AssertExpectations(t)
}

func TestHandleWebhookPaymentFailedWithoutSubscriptionIsNoop(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	store := &mockStore{}
	store.On("Get", mock.Anything, orgID.String()).Return(nil, subscription.ErrNotFound)

	provider := &mockProvider{}
	provider.On("ParseWebhook", mock.Anything, mock.Anything, mock.Anything).Return(&subscription.WebhookEvent{
		Type:           subscription.EventPaymentFailed,
		OrganizationID: orgID.String(),
	}, nil)

	svc := newTestService(t, store, subscription.WithBillingProvider(provider))

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))
}

func TestHandleWebhookRejectsBadOrganizationID(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{}
	provider.On("ParseWebhook", mock.Anything, mock.Anything, mock.Anything).Return(&subscription.WebhookEvent{
		Type:           subscription.EventSubscriptionCreated,
		OrganizationID: "not-a-uuid",
	}, nil)

	svc := newTestService(t, &mockStore{}, subscription.WithBillingProvider(provider))

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "sig")
	require.ErrorIs(t, err, subscription.ErrInvalidWebhook)
}

func TestExpireLapsedTrials(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	store.On("ExpireTrials", mock.Anything, testNow).Return(int64(3), nil)

	svc := newTestService(t, store)

	n, err := svc.ExpireLapsedTrials(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	store.AssertExpectations(t)
}

func TestTrialDaysRemainingRoundsUp(t *testing.T) {
	t.Parallel()

	endsAt := testNow.Add(5 * 24 * time.Hour)
	sub := &subscription.Subscription{
		Status:      subscription.StatusTrialing,
		TrialEndsAt: &endsAt,
	}
	assert.Equal(t, 5, sub.TrialDaysRemainingAt(testNow))

	halfDay := testNow.Add(12 * time.Hour)
	sub.TrialEndsAt = &halfDay
	assert.Equal(t, 1, sub.TrialDaysRemainingAt(testNow))

	lapsed := testNow.Add(-time.Hour)
	sub.TrialEndsAt = &lapsed
	assert.Equal(t, 0, sub.TrialDaysRemainingAt(testNow))
	assert.False(t, sub.IsTrialActiveAt(testNow))
}
