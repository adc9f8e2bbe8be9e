package plan

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// Catalog loads the plan reference data the platform sells. Implementations
// must return the full set in one call; plans are loaded once at startup and
// held in memory for the process lifetime.
type Catalog interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

type inMemCatalog struct {
	plans map[string]Plan
}

// NewInMemCatalog returns a Catalog over a deep copy of the given plans.
// Panics if no plans are provided: a running platform always has at least
// one plan to fall back to.
func NewInMemCatalog(plans ...Plan) Catalog {
	if len(plans) == 0 {
		panic("plan: at least one plan is required")
	}
	bysSlug := make(map[string]Plan, len(plans))
	for _, p := range plans {
		p.Features = maps.Clone(p.Features)
		bysSlug[p.Slug] = p
	}
	return &inMemCatalog{plans: bysSlug}
}

func (c *inMemCatalog) Load(_ context.Context) (map[string]Plan, error) {
	out := make(map[string]Plan, len(c.plans))
	for slug, p := range c.plans {
		p.Features = maps.Clone(p.Features)
		out[slug] = p
	}
	return out, nil
}

// Validate checks plan configurations for the mistakes operators actually
// make: missing slugs, negative trials, and paid plans without a provider
// price ID. Called once at startup so misconfiguration prevents boot instead
// of surfacing mid-request.
func Validate(plans map[string]Plan) error {
	if len(plans) == 0 {
		return ErrEmptyCatalog
	}
	for slug, p := range plans {
		if p.Slug == "" || p.Slug != slug {
			return errors.Join(ErrInvalidPlan, fmt.Errorf("catalog key %q does not match plan slug %q", slug, p.Slug))
		}
		if p.TrialDays < 0 {
			return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %s has negative trial days: %d", slug, p.TrialDays))
		}
		if p.Interval != BillingIntervalNone && p.ProviderID == "" {
			return errors.Join(ErrInvalidPlan, fmt.Errorf("paid plan %s has no provider price ID", slug))
		}
	}
	if _, ok := plans[BasicSlug]; !ok {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("catalog must include the %q fallback plan", BasicSlug))
	}
	return nil
}
