package organization_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/pkg/organization"
)

type fakeProvider struct {
	orgs  map[string]*organization.Organization
	calls int
}

func (f *fakeProvider) GetByIdentifier(_ context.Context, identifier string) (*organization.Organization, error) {
	f.calls++
	org, ok := f.orgs[identifier]
	if !ok {
		return nil, organization.ErrNotFound
	}
	return org, nil
}

func testOrg(slug string, active bool) *organization.Organization {
	return &organization.Organization{
		ID:           uuid.New(),
		Slug:         slug,
		Name:         "Acme Print",
		BillingEmail: "billing@acme.example",
		Active:       active,
		CreatedAt:    time.Now(),
	}
}

func headerRequest(slug string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	if slug != "" {
		req.Header.Set("X-Organization-ID", slug)
	}
	return req
}

func TestMiddlewareResolvesOrganization(t *testing.T) {
	t.Parallel()

	org := testOrg("acme", true)
	provider := &fakeProvider{orgs: map[string]*organization.Organization{"acme": org}}

	mw := organization.Middleware(
		organization.NewHeaderResolver(""),
		provider,
		organization.WithCache(organization.NewNoOpCache()),
	)

	var got *organization.Organization
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = organization.FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, headerRequest("acme"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, org.ID, got.ID)
}

func TestMiddlewarePassesThroughWithoutIdentifier(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	mw := organization.Middleware(organization.NewHeaderResolver(""), provider)

	var called bool
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := organization.FromContext(r.Context())
		assert.False(t, ok)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, headerRequest(""))

	assert.True(t, called)
	assert.Zero(t, provider.calls)
}

func TestMiddlewareUnknownOrganization(t *testing.T) {
	t.Parallel()

	mw := organization.Middleware(
		organization.NewHeaderResolver(""),
		&fakeProvider{},
		organization.WithCache(organization.NewNoOpCache()),
	)
	handler := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, headerRequest("ghost"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMiddlewareRejectsInactive(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{orgs: map[string]*organization.Organization{
		"closed": testOrg("closed", false),
	}}
	mw := organization.Middleware(
		organization.NewHeaderResolver(""),
		provider,
		organization.WithCache(organization.NewNoOpCache()),
	)
	handler := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, headerRequest("closed"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddlewareCachesLookups(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{orgs: map[string]*organization.Organization{
		"acme": testOrg("acme", true),
	}}
	cache := organization.NewMemoryCache(10)
	t.Cleanup(func() { _ = cache.Close() })

	mw := organization.Middleware(organization.NewHeaderResolver(""), provider,
		organization.WithCache(cache))
	handler := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	for range 3 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, headerRequest("acme"))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 1, provider.calls)
}

func TestMiddlewareSkipPaths(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	mw := organization.Middleware(organization.NewHeaderResolver(""), provider,
		organization.WithSkipPaths("/health"))
	handler := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Organization-ID", "ghost")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, provider.calls)
}

func TestRequire(t *testing.T) {
	t.Parallel()

	handler := organization.Require(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(organization.WithOrganization(req.Context(), testOrg("acme", true)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMemoryCacheExpiry(t *testing.T) {
	t.Parallel()

	cache := organization.NewMemoryCache(10)
	t.Cleanup(func() { _ = cache.Close() })

	org := testOrg("acme", true)
	cache.Set(context.Background(), "acme", org, 10*time.Millisecond)

	got, ok := cache.Get(context.Background(), "acme")
	require.True(t, ok)
	assert.Equal(t, org.ID, got.ID)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get(context.Background(), "acme")
	assert.False(t, ok)
}

func TestMemoryCacheEviction(t *testing.T) {
	t.Parallel()

	cache := organization.NewMemoryCache(2)
	t.Cleanup(func() { _ = cache.Close() })

	ctx := context.Background()
	cache.Set(ctx, "a", testOrg("a", true), time.Minute)
	cache.Set(ctx, "b", testOrg("b", true), time.Minute)

	// Touch "a" so "b" becomes least recently used.
	_, ok := cache.Get(ctx, "a")
	require.True(t, ok)

	cache.Set(ctx, "c", testOrg("c", true), time.Minute)

	_, ok = cache.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "a")
	assert.True(t, ok)
}
