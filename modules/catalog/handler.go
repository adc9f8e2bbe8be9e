package catalog

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

// Handler serves the product catalog JSON API.
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

// NewHandler creates the catalog handler. The entitlement service gates
// catalog access per plan; db backs the default tenant-scoped store.
func NewHandler(db *mongo.Database, ent *entitlement.Service, opts ...Option) *Handler {
	if ent == nil {
		panic("catalog: entitlement service is required")
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

// Handle returns the catalog routes.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{productID}", h.get)
	r.Put("/{productID}", h.update)
	r.Delete("/{productID}", h.delete)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	params := ListParams{
		Category: r.URL.Query().Get("category"),
		Page:     queryInt(r, "page", 1),
		PerPage:  queryInt(r, "perPage", defaultPerPage),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > maxPerPage {
		params.PerPage = defaultPerPage
	}
	if v := r.URL.Query().Get("active"); v != "" {
		active := v == "true"
		params.Active = &active
	}

	products, total, err := store.List(ctx, params)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	api.JSONWithMeta(w, products, map[string]any{
		"total":   total,
		"page":    params.Page,
		"perPage": params.PerPage,
	})
}

type productRequest struct {
	Name        string        `json:"name"`
	SKU         string        `json:"sku"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	PriceCents  int64         `json:"priceCents"`
	Currency    string        `json:"currency"`
	Options     []PriceOption `json:"options"`
	Active      *bool         `json:"active"`
}

func (req productRequest) validate() error {
	verr := api.ValidationError{}
	if strings.TrimSpace(req.Name) == "" {
		verr.Add("name", "name is required")
	}
	if req.PriceCents < 0 {
		verr.Add("priceCents", "price must not be negative")
	}
	for i, opt := range req.Options {
		if opt.Quantity <= 0 {
			verr.Add("options", "option "+strconv.Itoa(i)+": quantity must be positive")
		}
		if opt.PriceCents < 0 {
			verr.Add("options", "option "+strconv.Itoa(i)+": price must not be negative")
		}
	}
	if len(verr) > 0 {
		return verr
	}
	return nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	if err := h.ent.RequireFeature(ctx, p.OrganizationID, plan.FeatureProducts); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if err := h.ent.CheckUsageLimit(ctx, p.OrganizationID, plan.ResourceProducts); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	var req productRequest
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
	product := Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		SKU:         strings.TrimSpace(req.SKU),
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Currency:    defaultCurrency(req.Currency),
		Options:     req.Options,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	if err := store.Create(ctx, product); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.Created(w, product)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	product, err := store.Get(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req productRequest
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

	id := chi.URLParam(r, "productID")
	current, err := store.Get(ctx, id)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	current.Name = strings.TrimSpace(req.Name)
	current.SKU = strings.TrimSpace(req.SKU)
	current.Description = req.Description
	current.Category = req.Category
	current.PriceCents = req.PriceCents
	current.Currency = defaultCurrency(req.Currency)
	current.Options = req.Options
	if req.Active != nil {
		current.Active = *req.Active
	}
	current.UpdatedAt = h.now().UTC()

	if err := store.Update(ctx, current); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, current)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	if err := store.Delete(ctx, chi.URLParam(r, "productID")); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.NoContent(w)
}

func defaultCurrency(c string) string {
	if c == "" {
		return "USD"
	}
	return strings.ToUpper(c)
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
