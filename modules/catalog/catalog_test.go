package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/inkwellhq/inkwell/modules/catalog"
	"github.com/inkwellhq/inkwell/pkg/entitlement"
	"github.com/inkwellhq/inkwell/pkg/plan"
	"github.com/inkwellhq/inkwell/pkg/principal"
	"github.com/inkwellhq/inkwell/pkg/subscription"
)

type fakeSubs struct {
	subs map[string]*subscription.Subscription
}

func (f *fakeSubs) Get(_ context.Context, orgID string) (*subscription.Subscription, error) {
	sub, ok := f.subs[orgID]
	if !ok {
		return nil, subscription.ErrNotFound
	}
	return sub, nil
}

type fakeStore struct {
	products map[string]catalog.Product
	listErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: make(map[string]catalog.Product)}
}

func (f *fakeStore) List(_ context.Context, _ catalog.ListParams) ([]catalog.Product, int64, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var out []catalog.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) Get(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, mongo.ErrNoDocuments
	}
	return p, nil
}

func (f *fakeStore) Create(_ context.Context, p catalog.Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeStore) Update(_ context.Context, p catalog.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.products[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.products, id)
	return nil
}

func newTestHandler(t *testing.T, productCount int64) (*fakeStore, http.Handler) {
	t.Helper()

	ent, err := entitlement.NewService(context.Background(), plan.Builtin(), &fakeSubs{}, entitlement.WithCounters(entitlement.CounterRegistry{
		plan.ResourceProducts: func(context.Context, uuid.UUID) (int64, error) {
			return productCount, nil
		},
	}))
	require.NoError(t, err)

	store := newFakeStore()
	h := catalog.NewHandler(nil, ent,
		catalog.WithStore(func(context.Context) (catalog.Store, error) { return store, nil }),
		catalog.WithClock(func() time.Time {
			return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
		}),
	)
	return store, h.Handle()
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	p := principal.Principal{
		UserID:         uuid.New(),
		OrganizationID: uuid.New(),
		Role:           principal.RoleStaff,
	}
	return req.WithContext(principal.WithPrincipal(req.Context(), p))
}

func TestCreateProduct(t *testing.T) {
	t.Parallel()

	store, handler := newTestHandler(t, 0)

	req := authedRequest(http.MethodPost, "/", `{"name":"Business Cards","sku":"BC-100","priceCents":2400,"options":[{"label":"100 cards","quantity":100,"priceCents":2400}]}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data catalog.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Business Cards", resp.Data.Name)
	assert.Equal(t, "USD", resp.Data.Currency)
	assert.True(t, resp.Data.Active)
	assert.Len(t, store.products, 1)
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()

	store, handler := newTestHandler(t, 0)

	req := authedRequest(http.MethodPost, "/", `{"name":"  ","priceCents":-5}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
	assert.Empty(t, store.products)
}

func TestCreateProductAtPlanLimit(t *testing.T) {
	t.Parallel()

	// Basic caps products at 50.
	store, handler := newTestHandler(t, 50)

	req := authedRequest(http.MethodPost, "/", `{"name":"Flyers","priceCents":900}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "usage_limit_exceeded")
	assert.Empty(t, store.products)
}

func TestCreateProductUnauthenticated(t *testing.T) {
	t.Parallel()

	_, handler := newTestHandler(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Flyers"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetProduct(t *testing.T) {
	t.Parallel()

	store, handler := newTestHandler(t, 0)
	store.products["p1"] = catalog.Product{ID: "p1", Name: "Posters", PriceCents: 1500}

	req := authedRequest(http.MethodGet, "/p1", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Posters")
}

func TestGetProductNotFound(t *testing.T) {
	t.Parallel()

	_, handler := newTestHandler(t, 0)

	req := authedRequest(http.MethodGet, "/missing", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestUpdateProduct(t *testing.T) {
	t.Parallel()

	store, handler := newTestHandler(t, 0)
	store.products["p1"] = catalog.Product{ID: "p1", Name: "Posters", PriceCents: 1500, Active: true}

	req := authedRequest(http.MethodPut, "/p1", `{"name":"Large Posters","priceCents":1800,"active":false}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	updated := store.products["p1"]
	assert.Equal(t, "Large Posters", updated.Name)
	assert.Equal(t, int64(1800), updated.PriceCents)
	assert.False(t, updated.Active)
}

func TestDeleteProduct(t *testing.T) {
	t.Parallel()

	store, handler := newTestHandler(t, 0)
	store.products["p1"] = catalog.Product{ID: "p1", Name: "Posters"}

	req := authedRequest(http.MethodDelete, "/p1", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.products)
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	store, handler := newTestHandler(t, 0)
	store.products["p1"] = catalog.Product{ID: "p1", Name: "Posters"}
	store.products["p2"] = catalog.Product{ID: "p2", Name: "Flyers"}

	req := authedRequest(http.MethodGet, "/?page=1&perPage=10", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []catalog.Product `json:"data"`
		Meta map[string]any    `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.EqualValues(t, 2, resp.Meta["total"])
}
