package plan

import "time"

// Feature is a named boolean capability gate. The string values are shared
// verbatim with the UI gating layer, so renaming one is a breaking change.
type Feature string

const (
	FeatureProducts         Feature = "products"
	FeatureOrders           Feature = "orders"
	FeatureQuotes           Feature = "quotes"
	FeatureInvoices         Feature = "invoices"
	FeatureDepartments      Feature = "departments"
	FeatureStaff            Feature = "staff"
	FeatureWorkflow         Feature = "workflow"
	FeatureProfile          Feature = "profile"
	FeatureCustomers        Feature = "customers"
	FeatureAgents           Feature = "agents"
	FeatureTransactions     Feature = "transactions"
	FeaturePaymentGateway   Feature = "paymentGateway"
	FeaturePromotions       Feature = "promotions"
	FeaturePackages         Feature = "packages"
	FeatureAnalytics        Feature = "analytics"
	FeatureShipments        Feature = "shipments"
	FeaturePricingEngine    Feature = "pricingEngine"
	FeatureLiveTracking     Feature = "liveTracking"
	FeatureStorefront       Feature = "storefront"
	FeaturePublicLogin      Feature = "publicLogin"
	FeatureCustomerLogin    Feature = "customerLogin"
	FeatureAgentManualTopup Feature = "agentManualTopup"
	FeatureAgentAutoTopup   Feature = "agentAutoTopup"
	FeatureWhiteLabel       Feature = "whiteLabel"
	FeatureCustomDomain     Feature = "customDomain"
	FeatureAPIAccess        Feature = "apiAccess"
)

// Resource represents a countable tenant resource type.
type Resource string

const (
	ResourceUsers    Resource = "users"
	ResourceOrders   Resource = "orders"
	ResourceProducts Resource = "products"
	ResourceStorage  Resource = "storage" // measured in MB
)

// Unlimited indicates no limit for a resource (-1 chosen for SQL/BSON
// compatibility).
const Unlimited int64 = -1

// Limits caps the countable resources of a plan.
type Limits struct {
	MaxUsers     int64 `yaml:"maxUsers" json:"maxUsers"`
	MaxOrders    int64 `yaml:"maxOrders" json:"maxOrders"`
	MaxProducts  int64 `yaml:"maxProducts" json:"maxProducts"`
	MaxStorageMb int64 `yaml:"maxStorageMb" json:"maxStorageMb"`
}

// For returns the limit for the given resource, or Unlimited for resource
// types the plan does not cap.
func (l Limits) For(res Resource) int64 {
	switch res {
	case ResourceUsers:
		return l.MaxUsers
	case ResourceOrders:
		return l.MaxOrders
	case ResourceProducts:
		return l.MaxProducts
	case ResourceStorage:
		return l.MaxStorageMb
	default:
		return Unlimited
	}
}

// Money represents a monetary amount in the smallest currency unit.
// $29.00 USD is Amount: 2900, Currency: "USD".
type Money struct {
	Amount   int64  `yaml:"amount" json:"amount"`
	Currency string `yaml:"currency" json:"currency"`
}

// BillingInterval represents the billing frequency for a plan.
type BillingInterval string

const (
	BillingIntervalNone    BillingInterval = "none" // free plans with no billing
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// Plan describes a subscription plan: a named bundle of feature flags and
// resource limits sold to organizations. Plans are platform reference data
// edited by operators, never by tenants.
type Plan struct {
	Slug        string           `yaml:"slug" json:"slug"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description" json:"description"`
	Features    map[Feature]bool `yaml:"features" json:"features"`
	Limits      Limits           `yaml:"limits" json:"limits"`
	TrialDays   int              `yaml:"trialDays" json:"trialDays"`
	Public      bool             `yaml:"public" json:"public"`
	Price       Money            `yaml:"price" json:"price"`
	Interval    BillingInterval  `yaml:"interval" json:"interval"`
	ProviderID  string           `yaml:"providerId" json:"providerId"` // billing provider's price ID
}

// Has reports whether the plan's stored flag map enables the feature.
// Absent keys are false: undefined features are denied, not allowed.
func (p Plan) Has(f Feature) bool {
	return p.Features[f]
}

// TrialEndsAt returns when a trial started at the given time ends.
// Returns startedAt unchanged if the plan carries no trial.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	if p.TrialDays <= 0 {
		return startedAt
	}
	return startedAt.AddDate(0, 0, p.TrialDays).UTC()
}
