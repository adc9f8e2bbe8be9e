package team

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

var errLastOwner = api.NewHTTPError(http.StatusConflict, "last_owner")

var validRoles = map[principal.Role]bool{
	principal.RoleOwner: true,
	principal.RoleAdmin: true,
	principal.RoleStaff: true,
	principal.RoleAgent: true,
}

// Handler serves the staff roster JSON API.
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

// NewHandler creates the team handler.
func NewHandler(db *mongo.Database, ent *entitlement.Service, opts ...Option) *Handler {
	if ent == nil {
		panic("team: entitlement service is required")
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

// Handle returns the team routes. Listing is open to all staff; mutations
// require the admin role.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/{memberID}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/", h.create)
		r.Put("/{memberID}", h.update)
		r.Delete("/{memberID}", h.delete)
	})
	return r
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal.FromContext(r.Context())
		if !ok {
			api.Error(w, r, h.log, principal.ErrNotInContext)
			return
		}
		if !p.HasRole(principal.RoleAdmin) {
			api.Error(w, r, h.log, principal.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	params := ListParams{
		Role:    principal.Role(r.URL.Query().Get("role")),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "perPage", defaultPerPage),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > maxPerPage {
		params.PerPage = defaultPerPage
	}

	members, total, err := store.List(ctx, params)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if members == nil {
		members = []Member{}
	}
	api.JSONWithMeta(w, members, map[string]any{
		"total":   total,
		"page":    params.Page,
		"perPage": params.PerPage,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	member, err := store.Get(ctx, chi.URLParam(r, "memberID"))
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, member)
}

type memberRequest struct {
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Role   principal.Role `json:"role"`
	Active *bool          `json:"active"`
}

func (req memberRequest) validate() error {
	verr := api.ValidationError{}
	if strings.TrimSpace(req.Name) == "" {
		verr.Add("name", "name is required")
	}
	if !strings.Contains(req.Email, "@") {
		verr.Add("email", "invalid email address")
	}
	if req.Role != "" && !validRoles[req.Role] {
		verr.Add("role", "unknown role")
	}
	if len(verr) > 0 {
		return verr
	}
	return nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principal.MustFromContext(ctx)

	if err := h.ent.RequireFeature(ctx, p.OrganizationID, plan.FeatureStaff); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if err := h.ent.CheckUsageLimit(ctx, p.OrganizationID, plan.ResourceUsers); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	var req memberRequest
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

	role := req.Role
	if role == "" {
		role = principal.RoleStaff
	}

	now := h.now().UTC()
	member := Member{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Active != nil {
		member.Active = *req.Active
	}

	if err := store.Create(ctx, member); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.Created(w, member)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req memberRequest
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

	member, err := store.Get(ctx, chi.URLParam(r, "memberID"))
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	// Demoting or deactivating the last owner would strand the tenant.
	losesOwner := member.Role == principal.RoleOwner &&
		(req.Role != principal.RoleOwner || (req.Active != nil && !*req.Active))
	if losesOwner {
		owners, err := store.CountByRole(ctx, principal.RoleOwner)
		if err != nil {
			api.Error(w, r, h.log, err)
			return
		}
		if owners <= 1 {
			api.Error(w, r, h.log, errLastOwner)
			return
		}
	}

	member.Name = strings.TrimSpace(req.Name)
	if req.Role != "" {
		member.Role = req.Role
	}
	if req.Active != nil {
		member.Active = *req.Active
	}
	member.UpdatedAt = h.now().UTC()

	if err := store.Update(ctx, member); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSON(w, member)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.store(ctx)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	id := chi.URLParam(r, "memberID")
	member, err := store.Get(ctx, id)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	if member.Role == principal.RoleOwner {
		owners, err := store.CountByRole(ctx, principal.RoleOwner)
		if err != nil {
			api.Error(w, r, h.log, err)
			return
		}
		if owners <= 1 {
			api.Error(w, r, h.log, errLastOwner)
			return
		}
	}

	if err := store.Delete(ctx, id); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.NoContent(w)
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
