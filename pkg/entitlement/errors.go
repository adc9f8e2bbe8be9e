package entitlement

import (
	"errors"
	"fmt"

	"github.com/inkwellhq/inkwell/pkg/plan"
)

var (
	// ErrFeatureNotAvailable is returned by RequireFeature when the
	// organization's plan does not include a capability. Handlers surface it
	// as an upgrade prompt, not a generic failure.
	ErrFeatureNotAvailable = errors.New("feature not available on current plan")

	ErrNoCounterRegistered  = errors.New("no usage counter registered for resource")
	ErrFailedToCountUsage   = errors.New("failed to count resource usage")
	ErrDowngradeNotPossible = errors.New("current usage exceeds the target plan's limits")
)

// UsageLimitExceededError reports that creating another resource would pass
// the plan's cap. It is a business-rule failure distinct from authorization
// and system errors; callers match it with errors.As and render an upgrade
// prompt with the limit attached.
type UsageLimitExceededError struct {
	Resource plan.Resource
	Limit    int64
	Current  int64
}

func (e *UsageLimitExceededError) Error() string {
	return fmt.Sprintf("usage limit exceeded: %d/%d %s", e.Current, e.Limit, e.Resource)
}
