// Package signup is the public self-service onboarding endpoint: it creates
// an organization and starts its subscription in one call. It is mounted
// outside the organization and principal middleware chains.
package signup

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkwellhq/inkwell/pkg/api"
	"github.com/inkwellhq/inkwell/pkg/logger"
	"github.com/inkwellhq/inkwell/pkg/organization"
	"github.com/inkwellhq/inkwell/pkg/plan"
	"github.com/inkwellhq/inkwell/pkg/subscription"
)

// Handler serves the signup endpoint.
type Handler struct {
	orgs        *organization.Service
	subs        *subscription.Service
	log         *slog.Logger
	defaultPlan string
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

// WithDefaultPlan sets the plan used when the signup request names none.
func WithDefaultPlan(slug string) Option {
	return func(h *Handler) {
		if slug != "" {
			h.defaultPlan = slug
		}
	}
}

// NewHandler creates the signup handler. New organizations without an
// explicit plan choice start a Pro trial.
func NewHandler(orgs *organization.Service, subs *subscription.Service, opts ...Option) *Handler {
	if orgs == nil {
		panic("signup: organization service is required")
	}
	if subs == nil {
		panic("signup: subscription service is required")
	}
	h := &Handler{
		orgs:        orgs,
		subs:        subs,
		log:         slog.New(slog.DiscardHandler),
		defaultPlan: plan.ProSlug,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle returns the signup routes.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.signup)
	return r
}

type signupRequest struct {
	Name         string `json:"name"`
	BillingEmail string `json:"billingEmail"`
	Slug         string `json:"slug"`
	PlanSlug     string `json:"planSlug"`
}

func (req signupRequest) validate() error {
	verr := api.ValidationError{}
	if strings.TrimSpace(req.Name) == "" {
		verr.Add("name", "organization name is required")
	}
	if !strings.Contains(req.BillingEmail, "@") {
		verr.Add("billingEmail", "invalid billing email")
	}
	if len(verr) > 0 {
		return verr
	}
	return nil
}

type signupResponse struct {
	Organization *organization.Organization `json:"organization"`
	PlanSlug     string                     `json:"planSlug"`
	Status       subscription.Status        `json:"status"`
	TrialEndsAt  *time.Time                 `json:"trialEndsAt,omitempty"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signupRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	org, err := h.orgs.Register(ctx, organization.RegisterParams{
		Name:         req.Name,
		BillingEmail: req.BillingEmail,
		Slug:         req.Slug,
	})
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	planSlug := req.PlanSlug
	if planSlug == "" {
		planSlug = h.defaultPlan
	}

	sub, err := h.subs.StartTrial(ctx, org.ID, planSlug)
	if err != nil {
		// The organization exists but has no subscription; entitlement
		// resolution falls back to Basic, so signup still succeeds for
		// anything except a bad plan choice.
		if errors.Is(err, subscription.ErrPlanNotFound) {
			api.Error(w, r, h.log, err)
			return
		}
		h.log.ErrorContext(ctx, "signup subscription failed, organization left on basic",
			logger.OrganizationID(org.ID),
			slog.String("plan", planSlug))
		api.Created(w, signupResponse{Organization: org, PlanSlug: plan.BasicSlug, Status: subscription.StatusActive})
		return
	}

	resp := signupResponse{
		Organization: org,
		PlanSlug:     sub.PlanSlug,
		Status:       sub.Status,
	}
	if sub.TrialEndsAt != nil {
		resp.TrialEndsAt = sub.TrialEndsAt
	}
	api.Created(w, resp)
}
