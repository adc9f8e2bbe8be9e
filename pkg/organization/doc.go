// Package organization manages print shop accounts and resolves the
// current organization for each HTTP request.
//
// The package covers the full account lifecycle (registration, profile
// updates, deactivation) plus request-time resolution built around three
// concepts:
//
// 1. Resolvers - extract an organization identifier from the request
// (subdomain, header, or path segment)
// 2. Provider - loads the full organization record from storage
// 3. Middleware - orchestrates resolution, caching, and context propagation
//
// # Usage
//
//	import "github.com/inkwellhq/inkwell/pkg/organization"
//
//	resolver := organization.NewCompositeResolver(
//		organization.NewSubdomainResolver(".inkwell.app"),
//		organization.NewHeaderResolver(""),
//	)
//
//	store := organization.NewMongoStore(admin)
//
//	mw := organization.Middleware(resolver, store,
//		organization.WithCacheTTL(10*time.Minute),
//		organization.WithSkipPaths("/health"),
//	)
//	router.Use(mw)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		org := organization.MustFromContext(r.Context())
//		// ...
//	}
//
// When multiple server instances run behind a load balancer, pass
// NewRedisCache so a resolved organization is shared across instances.
package organization
