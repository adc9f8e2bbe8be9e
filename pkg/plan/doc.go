// Package plan defines the plan reference data the platform sells: feature
// flags, resource limits, trial lengths and pricing per tier.
//
// Plans are immutable reference data edited by platform operators, not by
// tenants. They are loaded once at startup from a Catalog (built-in defaults
// or a YAML file) and validated before the server accepts traffic.
//
// The feature-flag vocabulary in this package is shared verbatim with the
// storefront and dashboard gating layers; the entitlement package resolves
// an organization's effective flags from it.
package plan
