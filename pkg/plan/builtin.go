package plan

// Built-in plan slugs. BasicSlug doubles as the fail-safe default: an
// organization without a subscription row still resolves to the Basic
// feature set so the product never locks a tenant out entirely. ProSlug is
// the tier granted during trials.
const (
	BasicSlug    = "basic"
	ProSlug      = "pro"
	BusinessSlug = "business"
)

func basicFeatures() map[Feature]bool {
	return map[Feature]bool{
		FeatureProducts:      true,
		FeatureOrders:        true,
		FeatureQuotes:        true,
		FeatureInvoices:      true,
		FeatureDepartments:   true,
		FeatureStaff:         true,
		FeatureProfile:       true,
		FeatureCustomers:     true,
		FeatureStorefront:    true,
		FeatureCustomerLogin: true,
	}
}

func proFeatures() map[Feature]bool {
	features := basicFeatures()
	for _, f := range []Feature{
		FeatureWorkflow,
		FeatureAgents,
		FeatureTransactions,
		FeaturePaymentGateway,
		FeaturePromotions,
		FeaturePackages,
		FeatureAnalytics,
		FeatureShipments,
		FeaturePricingEngine,
		FeatureLiveTracking,
		FeaturePublicLogin,
		FeatureAgentManualTopup,
	} {
		features[f] = true
	}
	return features
}

func businessFeatures() map[Feature]bool {
	features := proFeatures()
	for _, f := range []Feature{
		FeatureAgentAutoTopup,
		FeatureWhiteLabel,
		FeatureCustomDomain,
		FeatureAPIAccess,
	} {
		features[f] = true
	}
	return features
}

// Basic returns the built-in free tier. Its limits are also the fail-safe
// defaults used when an organization has no subscription.
func Basic() Plan {
	return Plan{
		Slug:        BasicSlug,
		Name:        "Basic",
		Description: "Everything a small print shop needs to take orders online.",
		Features:    basicFeatures(),
		Limits: Limits{
			MaxUsers:     5,
			MaxOrders:    100,
			MaxProducts:  50,
			MaxStorageMb: 512,
		},
		TrialDays: 0,
		Public:    true,
		Interval:  BillingIntervalNone,
	}
}

// Pro returns the built-in mid tier. Trials grant this plan's features and
// limits regardless of the organization's subscribed plan.
func Pro() Plan {
	return Plan{
		Slug:        ProSlug,
		Name:        "Pro",
		Description: "Agents, promotions, analytics and the full pricing engine.",
		Features:    proFeatures(),
		Limits: Limits{
			MaxUsers:     25,
			MaxOrders:    5000,
			MaxProducts:  1000,
			MaxStorageMb: 10240,
		},
		TrialDays:  14,
		Public:     true,
		Price:      Money{Amount: 4900, Currency: "USD"},
		Interval:   BillingIntervalMonthly,
		ProviderID: "price_pro_monthly",
	}
}

// Business returns the built-in top tier with unlimited resources.
func Business() Plan {
	return Plan{
		Slug:        BusinessSlug,
		Name:        "Business",
		Description: "White label, custom domains, API access. No limits.",
		Features:    businessFeatures(),
		Limits: Limits{
			MaxUsers:     Unlimited,
			MaxOrders:    Unlimited,
			MaxProducts:  Unlimited,
			MaxStorageMb: Unlimited,
		},
		TrialDays:  14,
		Public:     true,
		Price:      Money{Amount: 14900, Currency: "USD"},
		Interval:   BillingIntervalMonthly,
		ProviderID: "price_business_monthly",
	}
}

// Builtin returns the default catalog shipped with the platform.
func Builtin() Catalog {
	return NewInMemCatalog(Basic(), Pro(), Business())
}
