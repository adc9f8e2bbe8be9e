// Package billing exposes the tenant-facing billing surface: the public
// plan catalog, the organization's subscription and usage, checkout and
// customer portal links, and the payment provider's webhook endpoint.
package billing

import (
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkwellhq/inkwell/pkg/api"
	"github.com/inkwellhq/inkwell/pkg/entitlement"
	"github.com/inkwellhq/inkwell/pkg/plan"
	"github.com/inkwellhq/inkwell/pkg/principal"
	"github.com/inkwellhq/inkwell/pkg/subscription"
)

// SignatureHeader carries the payment provider's webhook signature.
const SignatureHeader = "Paddle-Signature"

// Handler serves the billing JSON API.
type Handler struct {
	subs *subscription.Service
	ent  *entitlement.Service
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

// NewHandler creates the billing handler.
func NewHandler(subs *subscription.Service, ent *entitlement.Service, opts ...Option) *Handler {
	if subs == nil {
		panic("billing: subscription service is required")
	}
	if ent == nil {
		panic("billing: entitlement service is required")
	}
	h := &Handler{
		subs: subs,
		ent:  ent,
		log:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle returns the tenant-facing billing routes. The webhook endpoint is
// not included; mount Webhook separately outside the auth middleware chain.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/plans", h.listPlans)
	r.Get("/subscription", h.getSubscription)
	r.Get("/access", h.getAccess)
	r.Get("/usage", h.getUsage)
	r.Post("/trial", h.startTrial)
	r.Post("/checkout", h.checkout)
	r.Get("/portal", h.portal)
	r.Post("/downgrade-check", h.downgradeCheck)
	r.Delete("/subscription", h.cancel)
	return r
}

// Webhook returns the payment provider callback endpoint. It authenticates
// by signature, not by principal.
func (h *Handler) Webhook() http.HandlerFunc {
	return h.webhook
}

// planView is the public shape of a plan; provider price IDs stay internal.
type planView struct {
	Slug        string               `json:"slug"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Features    []plan.Feature       `json:"features"`
	Limits      plan.Limits          `json:"limits"`
	TrialDays   int                  `json:"trialDays"`
	Price       plan.Money           `json:"price"`
	Interval    plan.BillingInterval `json:"interval"`
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	var views []planView
	for _, p := range h.subs.Plans() {
		if !p.Public {
			continue
		}
		var features []plan.Feature
		for f, enabled := range p.Features {
			if enabled {
				features = append(features, f)
			}
		}
		sort.Slice(features, func(i, j int) bool { return features[i] < features[j] })
		views = append(views, planView{
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
			Features:    features,
			Limits:      p.Limits,
			TrialDays:   p.TrialDays,
			Price:       p.Price,
			Interval:    p.Interval,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Price.Amount < views[j].Price.Amount })
	api.JSON(w, views)
}

type subscriptionView struct {
	PlanSlug           string              `json:"planSlug"`
	Status             subscription.Status `json:"status"`
	CurrentPeriodStart time.Time           `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time           `json:"currentPeriodEnd"`
	TrialEndsAt        *time.Time          `json:"trialEndsAt,omitempty"`
	CanceledAt         *time.Time          `json:"canceledAt,omitempty"`
}

func (h *Handler) getSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	sub, err := h.subs.Get(ctx, p.OrganizationID)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, subscriptionView{
		PlanSlug:           sub.PlanSlug,
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		TrialEndsAt:        sub.TrialEndsAt,
		CanceledAt:         sub.CanceledAt,
	})
}

func (h *Handler) getAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}
	api.JSON(w, h.ent.Resolve(ctx, p.OrganizationID))
}

func (h *Handler) getUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}
	api.JSON(w, h.ent.Usage(ctx, p.OrganizationID))
}

func (h *Handler) startTrial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	var req struct {
		PlanSlug string `json:"planSlug"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if strings.TrimSpace(req.PlanSlug) == "" {
		verr := api.ValidationError{}
		verr.Add("planSlug", "plan slug is required")
		api.Error(w, r, h.log, verr)
		return
	}

	sub, err := h.subs.StartTrial(ctx, p.OrganizationID, req.PlanSlug)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.Created(w, subscriptionView{
		PlanSlug:           sub.PlanSlug,
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		TrialEndsAt:        sub.TrialEndsAt,
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	var req struct {
		PlanSlug   string `json:"planSlug"`
		Email      string `json:"email"`
		SuccessURL string `json:"successUrl"`
		CancelURL  string `json:"cancelUrl"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if strings.TrimSpace(req.PlanSlug) == "" {
		verr := api.ValidationError{}
		verr.Add("planSlug", "plan slug is required")
		api.Error(w, r, h.log, verr)
		return
	}

	link, err := h.subs.CreateCheckoutLink(ctx, p.OrganizationID, req.PlanSlug, subscription.CheckoutOptions{
		Email:      req.Email,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, link)
}

func (h *Handler) portal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	link, err := h.subs.GetCustomerPortalLink(ctx, p.OrganizationID)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, link)
}

func (h *Handler) downgradeCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	var req struct {
		PlanSlug string `json:"planSlug"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	if err := h.ent.CanDowngrade(ctx, p.OrganizationID, req.PlanSlug); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, map[string]any{"allowed": true, "planSlug": req.PlanSlug})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	if err := h.subs.Cancel(ctx, p.OrganizationID); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.NoContent(w)
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		api.Error(w, r, h.log, api.ErrBadRequest)
		return
	}

	if err := h.subs.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader)); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
