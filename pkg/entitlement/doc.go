// Package entitlement resolves what an organization is allowed to do: its
// effective feature flags, resource limits, and trial state.
//
// Resolution is a pure derivation evaluated per request, in precedence
// order:
//
//  1. No subscription row: the Basic feature set and limits. The fallback is
//     deliberate fail-open-to-default - a billing hiccup must never lock a
//     tenant out of baseline functionality.
//  2. An active trial (status trialing, trial_ends_at in the future): the
//     Pro tier's features and limits regardless of the subscribed plan,
//     plus trial metadata with days remaining (rounded up).
//  3. Otherwise: the subscribed plan's stored flags, with the Basic map
//     filling in any flag the plan does not mention, and that plan's
//     limits. A lapsed trial lands here without waiting for the expiry
//     sweep to persist the status change.
//
// Capability checks are closed-world: a feature absent from the resolved
// map is denied.
//
// Usage limits are advisory-before-write. CheckUsageLimit counts current
// records and fails when the cap is reached, but it holds no lock: two
// concurrent creates can both pass the check and overshoot the cap by a
// small margin. That is accepted - the business impact of slight overage is
// low and a distributed lock is not worth its complexity here.
package entitlement
