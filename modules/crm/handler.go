package crm

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/inkwellhq/inkwell/pkg/api"
	"github.com/inkwellhq/inkwell/pkg/entitlement"
	"github.com/inkwellhq/inkwell/pkg/plan"
	"github.com/inkwellhq/inkwell/pkg/principal"
)

const (
	defaultPerPage = 25
	maxPerPage     = 100
)

// Handler serves the customer and agent JSON API.
type Handler struct {
	db    *mongo.Database
	ent   *entitlement.Service
	log   *slog.Logger
	store func(ctx context.Context) (Store, error)
	now   func() time.Time
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

// WithStore overrides the per-request store factory. Used in tests.
func WithStore(fn func(ctx context.Context) (Store, error)) Option {
	return func(h *Handler) {
		if fn != nil {
			h.store = fn
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler creates the crm handler.
func NewHandler(db *mongo.Database, ent *entitlement.Service, opts ...Option) *Handler {
	if ent == nil {
		panic("crm: entitlement service is required")
	}
	h := &Handler{
		db:  db,
		ent: ent,
		log: slog.New(slog.DiscardHandler),
		now: time.Now,
	}
	h.store = func(ctx context.Context) (Store, error) {
		scoped, err := principal.ScopedFromContext(ctx, h.db)
		if err != nil {
			return nil, err
		}
		return NewMongoStore(scoped), nil
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle returns the crm routes. Agent routes require the agents feature,
// checked per request so plan changes apply immediately.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()

	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Get("/{customerID}", h.getCustomer)
		r.Put("/{customerID}", h.updateCustomer)
		r.Delete("/{customerID}", h.deleteCustomer)
	})

	r.Route("/agents", func(r chi.Router) {
		r.Use(h.requireFeature(plan.FeatureAgents))
		r.Get("/", h.listAgents)
		r.Post("/", h.createAgent)
		r.Get("/{agentID}", h.getAgent)
		r.Put("/{agentID}", h.updateAgent)
		r.With(h.requireFeature(plan.FeatureAgentManualTopup)).
			Post("/{agentID}/topup", h.topUpAgent)
		r.With(h.requireFeature(plan.FeatureTransactions)).
			Get("/{agentID}/transactions", h.listAgentTransactions)
	})

	return r
}

// requireFeature rejects the request unless the caller's plan enables the
// feature.
func (h *Handler) requireFeature(f plan.Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal.FromContext(r.Context())
			if !ok {
				api.Error(w, r, h.log, principal.ErrNotInContext)
				return
			}
			if err := h.ent.RequireFeature(r.Context(), p.OrganizationID, f); err != nil {
				api.Error(w, r, h.log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) listParams(r *http.Request) ListParams {
	params := ListParams{
		Search:  r.URL.Query().Get("search"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "perPage", defaultPerPage),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > maxPerPage {
		params.PerPage = defaultPerPage
	}
	return params
}

type customerRequest struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Company string   `json:"company"`
	Tags    []string `json:"tags"`
	Notes   string   `json:"notes"`
}

func (req customerRequest) validate() error {
	verr := api.ValidationError{}
	if strings.TrimSpace(req.Name) == "" {
		verr.Add("name", "name is required")
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		verr.Add("email", "invalid email address")
	}
	if len(verr) > 0 {
		return verr
	}
	return nil
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	params := h.listParams(r)
	customers, total, err := store.ListCustomers(ctx, params)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if customers == nil {
		customers = []Customer{}
	}
	api.JSONWithMeta(w, customers, map[string]any{
		"total":   total,
		"page":    params.Page,
		"perPage": params.PerPage,
	})
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}
	if err := h.ent.RequireFeature(ctx, p.OrganizationID, plan.FeatureCustomers); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	var req customerRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	now := h.now().UTC()
	customer := Customer{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     req.Phone,
		Company:   req.Company,
		Tags:      req.Tags,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := store.CreateCustomer(ctx, customer); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.Created(w, customer)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	customer, err := store.GetCustomer(ctx, chi.URLParam(r, "customerID"))
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, customer)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req customerRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	customer, err := store.GetCustomer(ctx, chi.URLParam(r, "customerID"))
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	customer.Name = strings.TrimSpace(req.Name)
	customer.Email = strings.ToLower(strings.TrimSpace(req.Email))
	customer.Phone = req.Phone
	customer.Company = req.Company
	customer.Tags = req.Tags
	customer.Notes = req.Notes
	customer.UpdatedAt = h.now().UTC()

	if err := store.UpdateCustomer(ctx, customer); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, customer)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	if err := store.DeleteCustomer(ctx, chi.URLParam(r, "customerID")); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.NoContent(w)
}

type agentRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	CommissionPercent int64  `json:"commissionPercent"`
	Active            *bool  `json:"active"`
}

func (req agentRequest) validate() error {
	verr := api.ValidationError{}
	if strings.TrimSpace(req.Name) == "" {
		verr.Add("name", "name is required")
	}
	if !strings.Contains(req.Email, "@") {
		verr.Add("email", "invalid email address")
	}
	if req.CommissionPercent < 0 || req.CommissionPercent > 100 {
		verr.Add("commissionPercent", "commission must be between 0 and 100")
	}
	if len(verr) > 0 {
		return verr
	}
	return nil
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	params := h.listParams(r)
	agents, total, err := store.ListAgents(ctx, params)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if agents == nil {
		agents = []Agent{}
	}
	api.JSONWithMeta(w, agents, map[string]any{
		"total":   total,
		"page":    params.Page,
		"perPage": params.PerPage,
	})
}

func (h *Handler) createAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req agentRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	now := h.now().UTC()
	agent := Agent{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(req.Name),
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		CommissionPercent: req.CommissionPercent,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.Active != nil {
		agent.Active = *req.Active
	}

	if err := store.CreateAgent(ctx, agent); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.Created(w, agent)
}

func (h *Handler) getAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	agent, err := store.GetAgent(ctx, chi.URLParam(r, "agentID"))
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, agent)
}

func (h *Handler) updateAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req agentRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	agent, err := store.GetAgent(ctx, chi.URLParam(r, "agentID"))
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	agent.Name = strings.TrimSpace(req.Name)
	agent.Email = strings.ToLower(strings.TrimSpace(req.Email))
	agent.CommissionPercent = req.CommissionPercent
	if req.Active != nil {
		agent.Active = *req.Active
	}
	agent.UpdatedAt = h.now().UTC()

	if err := store.UpdateAgent(ctx, agent); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, agent)
}

func (h *Handler) topUpAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		AmountCents int64 `json:"amountCents"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if req.AmountCents <= 0 {
		verr := api.ValidationError{}
		verr.Add("amountCents", "amount must be positive")
		api.Error(w, r, h.log, verr)
		return
	}

	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	id := chi.URLParam(r, "agentID")
	if err := store.TopUpAgent(ctx, id, req.AmountCents, h.now().UTC()); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	agent, err := store.GetAgent(ctx, id)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, agent)
}

func (h *Handler) listAgentTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	id := chi.URLParam(r, "agentID")
	if _, err := store.GetAgent(ctx, id); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	params := h.listParams(r)
	entries, total, err := store.ListAgentTransactions(ctx, id, params)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if entries == nil {
		entries = []Transaction{}
	}
	api.JSONWithMeta(w, entries, map[string]any{
		"total":   total,
		"page":    params.Page,
		"perPage": params.PerPage,
	})
}

func queryInt(r *http.Request, key string, fallback int64) int64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
