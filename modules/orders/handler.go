package orders

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

var (
	errInvalidTransition = api.NewHTTPError(http.StatusConflict, "invalid_status_transition")
	errNotInvoiceable    = api.NewHTTPError(http.StatusConflict, "order_not_invoiceable")
	errNotAQuote         = api.NewHTTPError(http.StatusConflict, "not_a_quote")
)

// Handler serves the order book JSON API.
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

// NewHandler creates the orders handler.
func NewHandler(db *mongo.Database, ent *entitlement.Service, opts ...Option) *Handler {
	if ent == nil {
		panic("orders: entitlement service is required")
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

// Handle returns the order routes.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.createOrder)
	r.Post("/quotes", h.createQuote)
	r.Get("/{orderID}", h.get)
	r.Post("/{orderID}/convert", h.convert)
	r.Patch("/{orderID}/status", h.updateStatus)
	r.Delete("/{orderID}", h.delete)
	r.Get("/{orderID}/invoice", h.invoice)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	q := r.URL.Query()
	params := ListParams{
		Kind:       Kind(q.Get("kind")),
		Status:     Status(q.Get("status")),
		CustomerID: q.Get("customerId"),
		Page:       queryInt(r, "page", 1),
		PerPage:    queryInt(r, "perPage", defaultPerPage),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > maxPerPage {
		params.PerPage = defaultPerPage
	}

	list, total, err := store.List(ctx, params)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if list == nil {
		list = []Order{}
	}
	api.JSONWithMeta(w, list, map[string]any{
		"total":   total,
		"page":    params.Page,
		"perPage": params.PerPage,
	})
}

type orderRequest struct {
	CustomerID string     `json:"customerId"`
	Items      []LineItem `json:"items"`
	Currency   string     `json:"currency"`
	Notes      string     `json:"notes"`
}

func (req orderRequest) validate() error {
	verr := api.ValidationError{}
	if len(req.Items) == 0 {
		verr.Add("items", "at least one line item is required")
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			verr.Add("items", "item "+strconv.Itoa(i)+": quantity must be positive")
		}
		if item.UnitCents < 0 {
			verr.Add("items", "item "+strconv.Itoa(i)+": unit price must not be negative")
		}
	}
	if len(verr) > 0 {
		return verr
	}
	return nil
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	h.createOfKind(w, r, KindOrder)
}

func (h *Handler) createQuote(w http.ResponseWriter, r *http.Request) {
	h.createOfKind(w, r, KindQuote)
}

func (h *Handler) createOfKind(w http.ResponseWriter, r *http.Request, kind Kind) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	feature := plan.FeatureOrders
	if kind == KindQuote {
		feature = plan.FeatureQuotes
	}
	if err := h.ent.RequireFeature(ctx, p.OrganizationID, feature); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if kind == KindOrder {
		if err := h.ent.CheckUsageLimit(ctx, p.OrganizationID, plan.ResourceOrders); err != nil {
			api.Error(w, r, h.log, err)
			return
		}
	}

	var req orderRequest
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
	order := Order{
		ID:         uuid.NewString(),
		Kind:       kind,
		Status:     StatusPending,
		CustomerID: req.CustomerID,
		Items:      req.Items,
		TotalCents: sumItems(req.Items),
		Currency:   defaultCurrency(req.Currency),
		Notes:      req.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	order.Number = numberFor(kind, order.ID)
	if kind == KindQuote {
		order.Status = StatusDraft
	}

	if err := store.Create(ctx, order); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.Created(w, order)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	order, err := store.Get(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, order)
}

// convert promotes a draft quote to a pending order. The order quota is
// checked at conversion time since that is when the quote starts counting.
func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	if err := h.ent.RequireFeature(ctx, p.OrganizationID, plan.FeatureOrders); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if err := h.ent.CheckUsageLimit(ctx, p.OrganizationID, plan.ResourceOrders); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	order, err := store.Get(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if order.Kind != KindQuote {
		api.Error(w, r, h.log, errNotAQuote)
		return
	}
	if !CanTransition(order.Status, StatusPending) {
		api.Error(w, r, h.log, errInvalidTransition)
		return
	}

	order.Kind = KindOrder
	order.Status = StatusPending
	order.Number = numberFor(KindOrder, order.ID)
	order.UpdatedAt = h.now().UTC()

	if err := store.Update(ctx, order); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, order)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Status Status `json:"status"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	order, err := store.Get(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if !CanTransition(order.Status, req.Status) {
		api.Error(w, r, h.log, errInvalidTransition)
		return
	}

	order.Status = req.Status
	order.UpdatedAt = h.now().UTC()

	if err := store.Update(ctx, order); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, order)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	if err := store.Delete(ctx, chi.URLParam(r, "orderID")); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.NoContent(w)
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	if err := h.ent.RequireFeature(ctx, p.OrganizationID, plan.FeatureInvoices); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	order, err := store.Get(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if order.Kind != KindOrder || order.Status == StatusCanceled {
		api.Error(w, r, h.log, errNotInvoiceable)
		return
	}

	api.JSON(w, Invoice{
		OrderID:    order.ID,
		Number:     "INV-" + shortID(order.ID),
		IssuedAt:   h.now().UTC(),
		Items:      order.Items,
		TotalCents: order.TotalCents,
		Currency:   order.Currency,
	})
}

func numberFor(kind Kind, id string) string {
	if kind == KindQuote {
		return "QUO-" + shortID(id)
	}
	return "ORD-" + shortID(id)
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

func sumItems(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Total()
	}
	return total
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
