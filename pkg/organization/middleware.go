package organization

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// ErrorHandler handles errors that occur during organization resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type config struct {
	cache         Cache
	cacheTTL      time.Duration
	errorHandler  ErrorHandler
	skipPaths     []string
	requireActive bool
}

// Option configures the middleware.
type Option func(*config)

// WithCache sets a custom cache implementation.
func WithCache(cache Cache) Option {
	return func(c *config) { c.cache = cache }
}

// WithCacheTTL sets how long resolved organizations stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) { c.cacheTTL = ttl }
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) { c.errorHandler = handler }
}

// WithSkipPaths sets path prefixes that skip organization resolution.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) { c.skipPaths = paths }
}

// WithRequireActive controls whether inactive organizations are rejected.
// Enabled by default.
func WithRequireActive(require bool) Option {
	return func(c *config) { c.requireActive = require }
}

// Middleware resolves the organization for each request and stores it in
// the request context. Requests without an identifier pass through without
// an organization; use Require behind it for routes that need one.
func Middleware(resolver Resolver, provider Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		cache:         NewMemoryCache(DefaultCacheSize),
		cacheTTL:      5 * time.Minute,
		errorHandler:  defaultErrorHandler,
		requireActive: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			identifier, err := resolver(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if identifier == "" {
				next.ServeHTTP(w, r)
				return
			}

			if cached, ok := cfg.cache.Get(r.Context(), identifier); ok {
				if cfg.requireActive && !cached.Active {
					cfg.errorHandler(w, r, ErrInactive)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithOrganization(r.Context(), cached)))
				return
			}

			org, err := provider.GetByIdentifier(r.Context(), identifier)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if cfg.requireActive && !org.Active {
				cfg.errorHandler(w, r, ErrInactive)
				return
			}

			cfg.cache.Set(r.Context(), identifier, org, cfg.cacheTTL)
			next.ServeHTTP(w, r.WithContext(WithOrganization(r.Context(), org)))
		})
	}
}

// Require rejects requests that reach it without an organization in the
// context.
func Require(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNotInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Organization not found", http.StatusNotFound)
	case errors.Is(err, ErrInactive):
		http.Error(w, "Organization is inactive", http.StatusForbidden)
	case errors.Is(err, ErrInvalidIdentifier):
		http.Error(w, "Invalid organization identifier", http.StatusBadRequest)
	case errors.Is(err, ErrNotInContext):
		http.Error(w, "Organization required", http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
