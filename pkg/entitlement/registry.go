package entitlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/inkwellhq/inkwell/pkg/plan"
)

// CounterFunc returns the current usage for an organization's resource.
// Counters run on every gated create, so implementations should be a single
// indexed count or a cached aggregate.
type CounterFunc func(ctx context.Context, orgID uuid.UUID) (int64, error)

// CounterRegistry maps a resource to its CounterFunc.
// Not thread-safe: register all counters at startup only.
type CounterRegistry map[plan.Resource]CounterFunc

// NewRegistry returns a new, empty CounterRegistry.
func NewRegistry() CounterRegistry {
	return make(CounterRegistry)
}

// Register sets or replaces the CounterFunc for the resource.
// Panics if fn is nil.
func (r CounterRegistry) Register(res plan.Resource, fn CounterFunc) {
	if fn == nil {
		panic(fmt.Sprintf("entitlement: CounterFunc for resource %q cannot be nil", res))
	}
	r[res] = fn
}
