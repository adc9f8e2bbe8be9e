package entitlement

import (
	"time"

	"github.com/inkwellhq/inkwell/pkg/plan"
)

// Trial carries the trial metadata of a resolved access.
type Trial struct {
	IsActive      bool       `json:"isActive"`
	EndsAt        *time.Time `json:"endsAt,omitempty"`
	DaysRemaining int        `json:"daysRemaining"`
}

// Access is an organization's effective feature set and limits, derived per
// request from its subscription state. It is never persisted.
type Access struct {
	PlanSlug string                `json:"planSlug"`
	Features map[plan.Feature]bool `json:"features"`
	Limits   plan.Limits           `json:"limits"`
	Trial    Trial                 `json:"trial"`
}

// Can reports whether the feature is enabled. Absent keys are denied.
func (a Access) Can(f plan.Feature) bool {
	return a.Features[f]
}

// Cannot is the negation of Can, for readable guard clauses.
func (a Access) Cannot(f plan.Feature) bool {
	return !a.Can(f)
}

// UsageInfo contains the current usage and limit for one resource.
type UsageInfo struct {
	Current int64 `json:"current"`
	Limit   int64 `json:"limit"`
}
