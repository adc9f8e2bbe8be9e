// Package settings serves the organization profile: shop name, logo and
// billing contact, plus account deactivation.
package settings

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/inkwellhq/inkwell/pkg/api"
	"github.com/inkwellhq/inkwell/pkg/organization"
	"github.com/inkwellhq/inkwell/pkg/principal"
)

// Handler serves the organization settings JSON API.
type Handler struct {
	orgs *organization.Service
	log  *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for request error reporting.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler creates the settings handler.
func NewHandler(orgs *organization.Service, opts ...Option) *Handler {
	if orgs == nil {
		panic("settings: organization service is required")
	}
	h := &Handler{
		orgs: orgs,
		log:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle returns the settings routes. Reads are open to all staff; profile
// updates need admin, deactivation needs the owner.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.get)
	r.With(h.requireRole(principal.RoleAdmin)).Put("/", h.update)
	r.With(h.requireRole(principal.RoleOwner)).Delete("/", h.deactivate)
	return r
}

func (h *Handler) requireRole(role principal.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal.FromContext(r.Context())
			if !ok {
				api.Error(w, r, h.log, principal.ErrNotInContext)
				return
			}
			if !p.HasRole(role) {
				api.Error(w, r, h.log, principal.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// get returns the organization resolved by the tenant middleware, so it
// reflects exactly what scoping saw for this request.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	org, ok := organization.FromContext(r.Context())
	if !ok {
		api.Error(w, r, h.log, organization.ErrNotInContext)
		return
	}
	api.JSON(w, org)
}

type updateRequest struct {
	Name         *string `json:"name"`
	LogoURL      *string `json:"logoUrl"`
	BillingEmail *string `json:"billingEmail"`
}

func (req updateRequest) validate() error {
	verr := api.ValidationError{}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		verr.Add("name", "name must not be empty")
	}
	if req.BillingEmail != nil && !strings.Contains(*req.BillingEmail, "@") {
		verr.Add("billingEmail", "invalid billing email")
	}
	if len(verr) > 0 {
		return verr
	}
	return nil
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principal.MustFromContext(ctx)

	var req updateRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	org, err := h.orgs.UpdateProfile(ctx, p.OrganizationID, organization.UpdateProfileParams{
		Name:         req.Name,
		LogoURL:      req.LogoURL,
		BillingEmail: req.BillingEmail,
	})
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, org)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principal.MustFromContext(ctx)

	if err := h.orgs.Deactivate(ctx, p.OrganizationID); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.NoContent(w)
}
