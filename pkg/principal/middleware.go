package principal

import (
	"errors"
	"net/http"

	"github.com/inkwellhq/inkwell/pkg/organization"
)

// Authenticator verifies request credentials and returns the caller's
// identity. Credential verification (sessions, tokens) lives behind this
// interface; the rest of the system only sees the resulting Principal.
type Authenticator interface {
	Authenticate(r *http.Request) (Principal, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(r *http.Request) (Principal, error)

func (f AuthenticatorFunc) Authenticate(r *http.Request) (Principal, error) {
	return f(r)
}

// ErrorHandler handles authentication and authorization failures.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates each request and stores the principal in the
// context. When the request already carries a resolved organization, the
// principal must belong to it; super admins are exempt from that check.
func Middleware(auth Authenticator, errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if auth == nil {
		panic("principal: authenticator is required")
	}
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := auth.Authenticate(r)
			if err != nil {
				errorHandler(w, r, errors.Join(ErrUnauthenticated, err))
				return
			}

			if org, ok := organization.FromContext(r.Context()); ok && !p.IsSuperAdmin {
				if !p.BelongsTo(org.ID) {
					errorHandler(w, r, ErrOrganizationScope)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole rejects principals below the required role.
func RequireRole(required Role, errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				errorHandler(w, r, ErrNotInContext)
				return
			}
			if !p.HasRole(required) {
				errorHandler(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperAdmin guards platform operator routes.
func RequireSuperAdmin(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				errorHandler(w, r, ErrNotInContext)
				return
			}
			if !p.IsSuperAdmin {
				errorHandler(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrNotInContext):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrOrganizationScope):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
