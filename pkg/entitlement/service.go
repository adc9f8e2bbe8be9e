package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/inkwellhq/inkwell/pkg/logger"
	"github.com/inkwellhq/inkwell/pkg/plan"
	"github.com/inkwellhq/inkwell/pkg/subscription"
)

// SubscriptionSource is the read side of subscription persistence the
// resolver needs.
type SubscriptionSource interface {
	Get(ctx context.Context, orgID string) (*subscription.Subscription, error)
}

// Service resolves effective access and enforces usage limits.
type Service struct {
	plans    map[string]plan.Plan
	basic    plan.Plan
	pro      plan.Plan
	subs     SubscriptionSource
	counters CounterRegistry
	log      *slog.Logger
	now      func() time.Time
}

// Option configures optional Service dependencies.
type Option func(*Service)

func WithCounters(reg CounterRegistry) Option {
	return func(s *Service) { s.counters = reg }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock overrides wall-clock time for deterministic trial math in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService loads the catalog and returns a resolver. The catalog must
// contain the Basic fallback plan and the Pro trial tier; anything less
// would leave resolution without its fail-safe default, so it fails startup.
func NewService(ctx context.Context, catalog plan.Catalog, subs SubscriptionSource, opts ...Option) (*Service, error) {
	if catalog == nil {
		panic("entitlement: plan.Catalog is required")
	}
	if subs == nil {
		panic("entitlement: SubscriptionSource is required")
	}

	plans, err := catalog.Load(ctx)
	if err != nil {
		return nil, errors.Join(plan.ErrFailedToLoadPlans, err)
	}
	if err := plan.Validate(plans); err != nil {
		return nil, err
	}
	pro, ok := plans[plan.ProSlug]
	if !ok {
		return nil, errors.Join(plan.ErrInvalidPlan, fmt.Errorf("catalog must include the %q trial tier", plan.ProSlug))
	}

	s := &Service{
		plans:    plans,
		basic:    plans[plan.BasicSlug], // presence checked by plan.Validate
		pro:      pro,
		subs:     subs,
		counters: NewRegistry(),
		log:      slog.New(slog.DiscardHandler),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resolve computes the organization's effective access. It never fails: any
// lookup problem degrades to the Basic default so feature gating can never
// take the whole product down for a tenant.
func (s *Service) Resolve(ctx context.Context, orgID uuid.UUID) Access {
	sub, err := s.subs.Get(ctx, orgID.String())
	if err != nil {
		if !errors.Is(err, subscription.ErrNotFound) {
			s.log.ErrorContext(ctx, "subscription lookup failed, using basic access",
				slog.String("organization_id", orgID.String()), logger.Error(err))
		}
		return s.basicAccess()
	}

	now := s.now()
	if sub.IsTrialActiveAt(now) {
		// Trials grant the full Pro tier regardless of the subscribed plan.
		return Access{
			PlanSlug: s.pro.Slug,
			Features: maps.Clone(s.pro.Features),
			Limits:   s.pro.Limits,
			Trial: Trial{
				IsActive:      true,
				EndsAt:        sub.TrialEndsAt,
				DaysRemaining: sub.TrialDaysRemainingAt(now),
			},
		}
	}

	// A trialing subscription whose window has passed lands here too: the
	// lapsed trial demotes to the base plan at read time, without waiting
	// for the sweep to persist status=expired.
	p, ok := s.plans[sub.PlanSlug]
	if !ok {
		s.log.WarnContext(ctx, "subscription references unknown plan, using basic access",
			slog.String("organization_id", orgID.String()),
			slog.String("plan", sub.PlanSlug))
		return s.basicAccess()
	}

	features := maps.Clone(s.basic.Features)
	maps.Copy(features, p.Features)
	return Access{
		PlanSlug: p.Slug,
		Features: features,
		Limits:   p.Limits,
		Trial:    Trial{IsActive: false, DaysRemaining: 0},
	}
}

func (s *Service) basicAccess() Access {
	return Access{
		PlanSlug: s.basic.Slug,
		Features: maps.Clone(s.basic.Features),
		Limits:   s.basic.Limits,
		Trial:    Trial{IsActive: false, DaysRemaining: 0},
	}
}

// Can reports whether the organization's resolved access enables the
// feature. Returns false on any resolution degradation for features the
// Basic tier does not carry: fail closed for capabilities, fail open only
// to the baseline.
func (s *Service) Can(ctx context.Context, orgID uuid.UUID, f plan.Feature) bool {
	return s.Resolve(ctx, orgID).Can(f)
}

// RequireFeature returns ErrFeatureNotAvailable (wrapped with the feature
// name) when the organization's plan does not include the capability.
func (s *Service) RequireFeature(ctx context.Context, orgID uuid.UUID, f plan.Feature) error {
	if s.Resolve(ctx, orgID).Cannot(f) {
		return fmt.Errorf("%w: %s", ErrFeatureNotAvailable, f)
	}
	return nil
}

// CheckUsageLimit fails with *UsageLimitExceededError when the organization
// has reached its cap for the resource. Callers invoke it immediately
// before the create they are gating. The check holds no lock; see the
// package documentation for the accepted check-then-act race.
func (s *Service) CheckUsageLimit(ctx context.Context, orgID uuid.UUID, res plan.Resource) error {
	access := s.Resolve(ctx, orgID)
	limit := access.Limits.For(res)
	if limit == plan.Unlimited {
		return nil
	}

	counter, ok := s.counters[res]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoCounterRegistered, res)
	}
	current, err := counter(ctx, orgID)
	if err != nil {
		return errors.Join(ErrFailedToCountUsage, err)
	}

	if current >= limit {
		return &UsageLimitExceededError{Resource: res, Limit: limit, Current: current}
	}
	return nil
}

// Usage returns current usage against limits for every resource the
// organization's plan caps. Counter failures leave that resource at zero
// rather than failing the whole summary; this feeds dashboards, not gates.
func (s *Service) Usage(ctx context.Context, orgID uuid.UUID) map[plan.Resource]UsageInfo {
	access := s.Resolve(ctx, orgID)
	out := make(map[plan.Resource]UsageInfo, len(s.counters))
	for res, counter := range s.counters {
		info := UsageInfo{Limit: access.Limits.For(res)}
		if current, err := counter(ctx, orgID); err == nil {
			info.Current = current
		} else {
			s.log.ErrorContext(ctx, "usage counter failed",
				slog.String("organization_id", orgID.String()),
				slog.String("resource", string(res)), logger.Error(err))
		}
		out[res] = info
	}
	return out
}

// CanDowngrade checks whether the organization's current usage fits inside
// the target plan's limits, preventing downgrades that would strand data
// over the cap.
func (s *Service) CanDowngrade(ctx context.Context, orgID uuid.UUID, targetSlug string) error {
	target, ok := s.plans[targetSlug]
	if !ok {
		return subscription.ErrPlanNotFound
	}

	for res, counter := range s.counters {
		limit := target.Limits.For(res)
		if limit == plan.Unlimited {
			continue
		}
		current, err := counter(ctx, orgID)
		if err != nil {
			return errors.Join(ErrFailedToCountUsage, err)
		}
		if current > limit {
			return fmt.Errorf("%w: %d %s against a cap of %d", ErrDowngradeNotPossible, current, res, limit)
		}
	}
	return nil
}
