// Package subscription manages the billing lifecycle that links an
// organization to a plan: the signup trial, hosted checkout through the
// payment provider, webhook-driven state transitions, cancellation, and the
// periodic sweep that expires lapsed trials.
//
// Subscriptions are platform-owned records (one per organization) persisted
// through unscoped access; tenants never write them directly. The
// entitlement package reads them to compute an organization's effective
// feature set.
//
// The payment provider is an external collaborator reached only through the
// BillingProvider interface; PaddleProvider is the shipped implementation.
// All card handling stays on the provider's hosted pages.
package subscription
