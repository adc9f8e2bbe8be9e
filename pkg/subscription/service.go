package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inkwellhq/inkwell/pkg/email"
	"github.com/inkwellhq/inkwell/pkg/logger"
	"github.com/inkwellhq/inkwell/pkg/plan"
)

// ContactSource resolves an organization's billing email for lifecycle
// notifications.
type ContactSource interface {
	BillingEmail(ctx context.Context, orgID string) (string, error)
}

// CheckoutOptions contains options for creating a checkout session.
type CheckoutOptions struct {
	Email      string // pre-fill billing email if known
	SuccessURL string
	CancelURL  string
}

// Service manages the subscription lifecycle: signup trials, checkout,
// webhook-driven state transitions, and the trial-expiry sweep.
type Service struct {
	plans    map[string]plan.Plan
	store    Store
	provider BillingProvider
	mailer   email.EmailSender
	contacts ContactSource
	log      *slog.Logger
	now      func() time.Time
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithBillingProvider wires the external payment processor. Without it the
// service can still run free plans and trials; paid checkout fails with
// ErrBillingNotConfigured.
func WithBillingProvider(p BillingProvider) Option {
	return func(s *Service) { s.provider = p }
}

// WithTrialNotifications wires the mailer and contact source used by
// NotifyEndingTrials.
func WithTrialNotifications(mailer email.EmailSender, contacts ContactSource) Option {
	return func(s *Service) {
		s.mailer = mailer
		s.contacts = contacts
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock overrides wall-clock time for deterministic trial math in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService loads and validates the plan catalog and returns a configured
// Service. Catalog problems fail startup rather than surfacing mid-request.
func NewService(ctx context.Context, catalog plan.Catalog, store Store, opts ...Option) (*Service, error) {
	if catalog == nil {
		panic("subscription: plan.Catalog is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}

	plans, err := catalog.Load(ctx)
	if err != nil {
		return nil, errors.Join(plan.ErrFailedToLoadPlans, err)
	}
	if err := plan.Validate(plans); err != nil {
		return nil, err
	}

	s := &Service{
		plans: plans,
		store: store,
		log:   slog.New(slog.DiscardHandler),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Plans returns the loaded catalog keyed by slug.
func (s *Service) Plans() map[string]plan.Plan {
	out := make(map[string]plan.Plan, len(s.plans))
	for slug, p := range s.plans {
		out[slug] = p
	}
	return out
}

// Get retrieves an organization's subscription.
func (s *Service) Get(ctx context.Context, orgID uuid.UUID) (*Subscription, error) {
	return s.store.Get(ctx, orgID.String())
}

// StartTrial creates the organization's initial subscription at signup. For
// plans with a trial window the subscription starts trialing with full
// upper-tier access (see the entitlement package); otherwise it starts
// active on the given plan. Fails with ErrAlreadyExists if the organization
// already has a subscription.
func (s *Service) StartTrial(ctx context.Context, orgID uuid.UUID, planSlug string) (*Subscription, error) {
	p, ok := s.plans[planSlug]
	if !ok {
		return nil, ErrPlanNotFound
	}

	if _, err := s.store.Get(ctx, orgID.String()); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := s.now()
	sub := &Subscription{
		OrganizationID:     orgID.String(),
		PlanSlug:           p.Slug,
		Status:             StatusActive,
		BillingCycle:       p.Interval,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd(p.Interval, now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if p.TrialDays > 0 {
		trialEnd := p.TrialEndsAt(now)
		sub.Status = StatusTrialing
		sub.TrialEndsAt = &trialEnd
		// Kept equal to the trial window so billing UIs show the right date;
		// expiry decisions only ever read trial_ends_at.
		sub.CurrentPeriodEnd = trialEnd
	}

	if err := s.store.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("save subscription: %w", err)
	}

	s.log.InfoContext(ctx, "subscription started",
		slog.String("organization_id", sub.OrganizationID),
		slog.String("plan", sub.PlanSlug),
		slog.String("status", string(sub.Status)))
	return sub, nil
}

// CreateCheckoutLink generates a hosted checkout link for a plan. Free plans
// bypass the payment provider entirely and activate immediately. An
// organization already on an active paid subscription must use the customer
// portal to change plans.
func (s *Service) CreateCheckoutLink(ctx context.Context, orgID uuid.UUID, planSlug string, opts CheckoutOptions) (*CheckoutLink, error) {
	p, ok := s.plans[planSlug]
	if !ok {
		return nil, ErrPlanNotFound
	}

	existing, err := s.store.Get(ctx, orgID.String())
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == StatusActive && existing.ProviderSubID != "" {
		return nil, ErrAlreadyExists
	}

	if p.Interval == plan.BillingIntervalNone {
		now := s.now()
		sub := &Subscription{
			OrganizationID:     orgID.String(),
			PlanSlug:           p.Slug,
			Status:             StatusActive,
			BillingCycle:       p.Interval,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   periodEnd(p.Interval, now),
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if existing != nil {
			sub.CreatedAt = existing.CreatedAt
			sub.ProviderCustomerID = existing.ProviderCustomerID
		}
		if err := s.store.Save(ctx, sub); err != nil {
			return nil, fmt.Errorf("save free plan subscription: %w", err)
		}
		// No payment step, so send the caller straight to the success URL.
		return &CheckoutLink{URL: opts.SuccessURL, ExpiresAt: s.now().Add(5 * time.Minute)}, nil
	}

	if s.provider == nil {
		return nil, ErrBillingNotConfigured
	}
	return s.provider.CreateCheckoutLink(ctx, CheckoutRequest{
		PriceID:        p.ProviderID,
		OrganizationID: orgID.String(),
		Email:          opts.Email,
		SuccessURL:     opts.SuccessURL,
		CancelURL:      opts.CancelURL,
	})
}

// GetCustomerPortalLink returns a link to the provider's customer portal.
func (s *Service) GetCustomerPortalLink(ctx context.Context, orgID uuid.UUID) (*PortalLink, error) {
	sub, err := s.store.Get(ctx, orgID.String())
	if err != nil {
		return nil, err
	}
	if sub.ProviderSubID == "" {
		return nil, fmt.Errorf("%w: no provider subscription to manage", ErrBillingNotConfigured)
	}
	if s.provider == nil {
		return nil, ErrBillingNotConfigured
	}
	return s.provider.GetCustomerPortalLink(ctx, sub)
}

// Cancel marks the organization's subscription canceled. The provider-side
// cancellation happens through the customer portal; this records the local
// state for entitlement resolution.
func (s *Service) Cancel(ctx context.Context, orgID uuid.UUID) error {
	sub, err := s.store.Get(ctx, orgID.String())
	if err != nil {
		return err
	}

	now := s.now()
	sub.Status = StatusCanceled
	sub.CanceledAt = &now
	sub.UpdatedAt = now
	return s.store.Save(ctx, sub)
}

// HandleWebhook processes a billing provider webhook and applies the
// resulting subscription state transition.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.provider == nil {
		return ErrBillingNotConfigured
	}

	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}
	if event.Type == EventIgnored {
		return nil
	}

	if _, err := uuid.Parse(event.OrganizationID); err != nil {
		return fmt.Errorf("%w: bad organization ID %q", ErrInvalidWebhook, event.OrganizationID)
	}

	now := s.now()
	switch event.Type {
	case EventSubscriptionCreated:
		sub := &Subscription{
			OrganizationID:     event.OrganizationID,
			PlanSlug:           s.planSlugForPrice(event.PriceID),
			Status:             normalizeStatus(event.Status),
			ProviderSubID:      event.SubscriptionID,
			ProviderCustomerID: event.ProviderCustomerID,
			CurrentPeriodStart: now,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if p, ok := s.plans[sub.PlanSlug]; ok {
			sub.BillingCycle = p.Interval
			sub.CurrentPeriodEnd = periodEnd(p.Interval, now)
			if sub.Status == StatusTrialing && p.TrialDays > 0 {
				trialEnd := p.TrialEndsAt(now)
				sub.TrialEndsAt = &trialEnd
				sub.CurrentPeriodEnd = trialEnd
			}
		}
		if existing, err := s.store.Get(ctx, event.OrganizationID); err == nil {
			sub.CreatedAt = existing.CreatedAt
		}
		if err := s.store.Save(ctx, sub); err != nil {
			return fmt.Errorf("save subscription: %w", err)
		}

	case EventSubscriptionUpdated:
		sub, err := s.store.Get(ctx, event.OrganizationID)
		if err != nil {
			return fmt.Errorf("subscription for organization %s: %w", event.OrganizationID, err)
		}
		if slug := s.planSlugForPrice(event.PriceID); slug != "" {
			sub.PlanSlug = slug
		}
		sub.Status = normalizeStatus(event.Status)
		sub.UpdatedAt = now
		if err := s.store.Save(ctx, sub); err != nil {
			return fmt.Errorf("update subscription: %w", err)
		}

	case EventSubscriptionCanceled:
		sub, err := s.store.Get(ctx, event.OrganizationID)
		if err != nil {
			return fmt.Errorf("subscription for organization %s: %w", event.OrganizationID, err)
		}
		sub.Status = StatusCanceled
		sub.CanceledAt = &now
		sub.UpdatedAt = now
		if err := s.store.Save(ctx, sub); err != nil {
			return fmt.Errorf("cancel subscription: %w", err)
		}

	case EventPaymentFailed:
		sub, err := s.store.Get(ctx, event.OrganizationID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		sub.Status = StatusPastDue
		sub.UpdatedAt = now
		if err := s.store.Save(ctx, sub); err != nil {
			return fmt.Errorf("mark subscription past due: %w", err)
		}
	}

	s.log.InfoContext(ctx, "billing webhook applied",
		logger.Event(string(event.Type)),
		slog.String("organization_id", event.OrganizationID))
	return nil
}

// ExpireLapsedTrials is the periodic sweep that persists trial expiry: every
// trialing subscription whose trial_ends_at has passed becomes expired.
// Read-time entitlement checks already demote lapsed trials, so the sweep
// only makes that state authoritative; running it late is safe.
func (s *Service) ExpireLapsedTrials(ctx context.Context) (int64, error) {
	n, err := s.store.ExpireTrials(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire trials: %w", err)
	}
	if n > 0 {
		s.log.InfoContext(ctx, "expired lapsed trials", slog.Int64("count", n))
	}
	return n, nil
}

// NotifyEndingTrials emails organizations whose trial ends within the given
// window. A noop unless WithTrialNotifications was configured. Send failures
// are logged per organization, not returned, so one bad address does not
// starve the rest of the batch.
func (s *Service) NotifyEndingTrials(ctx context.Context, window time.Duration) error {
	if s.mailer == nil || s.contacts == nil {
		return nil
	}

	now := s.now()
	subs, err := s.store.ListTrialsEndingBy(ctx, now, now.Add(window))
	if err != nil {
		return fmt.Errorf("list ending trials: %w", err)
	}

	for _, sub := range subs {
		to, err := s.contacts.BillingEmail(ctx, sub.OrganizationID)
		if err != nil {
			s.log.ErrorContext(ctx, "billing email lookup failed",
				slog.String("organization_id", sub.OrganizationID), logger.Error(err))
			continue
		}
		days := sub.TrialDaysRemainingAt(now)
		err = s.mailer.SendEmail(ctx, email.SendEmailParams{
			SendTo:   to,
			Subject:  fmt.Sprintf("Your Inkwell trial ends in %d days", days),
			BodyHTML: trialEndingBody(days),
			Tag:      "trial-ending",
		})
		if err != nil {
			s.log.ErrorContext(ctx, "trial notice send failed",
				slog.String("organization_id", sub.OrganizationID), logger.Error(err))
		}
	}
	return nil
}

// planSlugForPrice maps the provider's price ID back to a catalog slug.
// Returns the raw value unchanged when nothing matches so operators can spot
// unmapped prices in stored records.
func (s *Service) planSlugForPrice(priceID string) string {
	for slug, p := range s.plans {
		if p.ProviderID != "" && p.ProviderID == priceID {
			return slug
		}
	}
	return priceID
}

func normalizeStatus(raw string) Status {
	switch raw {
	case "trialing":
		return StatusTrialing
	case "past_due":
		return StatusPastDue
	case "canceled", "cancelled":
		return StatusCanceled
	case "expired":
		return StatusExpired
	default:
		return StatusActive
	}
}

func periodEnd(interval plan.BillingInterval, from time.Time) time.Time {
	switch interval {
	case plan.BillingIntervalMonthly:
		return from.AddDate(0, 1, 0)
	case plan.BillingIntervalAnnual:
		return from.AddDate(1, 0, 0)
	default:
		return from
	}
}

func trialEndingBody(days int) string {
	return fmt.Sprintf(
		`<p>Your Pro trial ends in %d days. Pick a plan to keep agents, analytics and the pricing engine enabled for your shop.</p>`,
		days)
}
