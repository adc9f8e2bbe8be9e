// Package scopedb provides tenant-scoped data access for multi-tenant
// collections.
//
// Every business record Inkwell stores carries an "organization_id" field.
// A scoped Client is bound to exactly one organization at construction time
// and rewrites the arguments of every operation so the underlying MongoDB
// query can only ever touch that organization's documents. Call sites cannot
// opt out: there is no method on the scoped client that bypasses the rewrite.
//
// # Scoping rules
//
// Read and write filters are merged with the bound organization ID using
// logical AND. A caller-supplied filter that explicitly pins
// "organization_id" to a different organization is rejected with
// ErrCrossTenant instead of being silently corrected - an explicit mismatch
// indicates either a bug or forged input, and both deserve visibility.
//
// Create operations unconditionally overwrite the document's
// "organization_id" with the bound scope. A request body may claim any
// organization; the write ignores the claim. Update documents may not name
// "organization_id" at all - the scope is written once at creation and an
// update that touches it fails with ErrCrossTenant.
//
// Unique lookups by document ID use a compound filter ({_id, organization_id}),
// so a record owned by a foreign organization is indistinguishable from a
// record that does not exist.
//
// # Privileged access
//
// Platform operators use Admin, a separate unscoped type. The choice between
// Client and Admin is made once at the request boundary from the
// authenticated principal (see the principal package) and is structural, not
// a runtime flag, so no code path can broaden its scope after construction.
//
// # Usage
//
//	sdb := scopedb.NewScoped(db, org.ID)
//	cur, err := sdb.Collection("orders").FindMany(ctx, bson.M{"status": "open"})
//
// The layer is a stateless rewriting proxy: it adds no caching, retries, or
// timeouts of its own, and passes driver errors through unchanged.
package scopedb
