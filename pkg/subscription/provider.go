package subscription

import (
	"context"
	"time"
)

// BillingProvider is the minimal surface of the external payment processor.
// Hosted checkouts and customer portals keep all card handling on the
// provider's side; this platform only stores the resulting subscription
// state it learns about through webhooks.
type BillingProvider interface {
	// CreateCheckoutLink creates a hosted checkout session for a paid plan.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// GetCustomerPortalLink returns a temporary link to the customer portal
	// where an organization can update payment methods, cancel, or change
	// plans.
	GetCustomerPortalLink(ctx context.Context, sub *Subscription) (*PortalLink, error)

	// ParseWebhook validates the signature and normalizes the provider's
	// event payload. Must reject unverifiable payloads to prevent spoofing.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	PriceID        string // provider's price identifier for the plan
	OrganizationID string // internal organization ID, echoed back in webhooks
	Email          string // optional pre-filled billing email
	SuccessURL     string
	CancelURL      string
}

// CheckoutLink represents a hosted checkout session.
type CheckoutLink struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}

// PortalLink represents a customer portal session.
type PortalLink struct {
	URL              string
	CancelURL        string
	UpdatePaymentURL string
	ExpiresAt        time.Time
}

// EventType is the normalized billing event type. Each provider
// implementation maps its own event names onto these.
type EventType string

const (
	EventSubscriptionCreated  EventType = "subscription_created"
	EventSubscriptionUpdated  EventType = "subscription_updated"
	EventSubscriptionCanceled EventType = "subscription_canceled"
	EventPaymentFailed        EventType = "payment_failed"
	EventIgnored              EventType = "ignored"
)

// WebhookEvent is a provider-agnostic view of a billing webhook.
type WebhookEvent struct {
	Type               EventType
	ProviderEvent      string // original provider event name
	SubscriptionID     string // provider's subscription ID
	OrganizationID     string // echoed from checkout custom data
	ProviderCustomerID string
	Status             string
	PriceID            string // provider price the organization subscribed to
	Raw                map[string]any
}
