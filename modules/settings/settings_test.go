package settings_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/modules/settings"
	"github.com/inkwellhq/inkwell/pkg/organization"
	"github.com/inkwellhq/inkwell/pkg/principal"
)

type memStore struct {
	mu   sync.Mutex
	orgs map[uuid.UUID]*organization.Organization
}

func newMemStore() *memStore {
	return &memStore{orgs: make(map[uuid.UUID]*organization.Organization)}
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*organization.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.orgs[id]
	if !ok {
		return nil, organization.ErrNotFound
	}
	copied := *org
	return &copied, nil
}

func (m *memStore) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, org := range m.orgs {
		if org.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Create(_ context.Context, org *organization.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *org
	m.orgs[org.ID] = &copied
	return nil
}

func (m *memStore) Update(_ context.Context, org *organization.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[org.ID]; !ok {
		return organization.ErrNotFound
	}
	copied := *org
	m.orgs[org.ID] = &copied
	return nil
}

func newTestHandler(t *testing.T, org *organization.Organization) (*memStore, http.Handler) {
	t.Helper()

	store := newMemStore()
	store.orgs[org.ID] = org

	svc := organization.NewService(store,
		organization.WithClock(func() time.Time {
			return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
		}))
	return store, settings.NewHandler(svc).Handle()
}

func requestFor(org *organization.Organization, role principal.Role, method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := organization.WithOrganization(req.Context(), org)
	ctx = principal.WithPrincipal(ctx, principal.Principal{
		UserID:         uuid.New(),
		OrganizationID: org.ID,
		Role:           role,
	})
	return req.WithContext(ctx)
}

func testOrg() *organization.Organization {
	return &organization.Organization{
		ID:           uuid.New(),
		Slug:         "acme",
		Name:         "Acme Print Co",
		BillingEmail: "billing@acme.com",
		Active:       true,
	}
}

func TestGetProfile(t *testing.T) {
	t.Parallel()

	org := testOrg()
	_, handler := newTestHandler(t, org)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFor(org, principal.RoleStaff, http.MethodGet, ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme Print Co")
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	org := testOrg()
	store, handler := newTestHandler(t, org)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFor(org, principal.RoleAdmin, http.MethodPut, `{"name":"Acme Printing","billingEmail":"accounts@acme.com"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	updated := store.orgs[org.ID]
	assert.Equal(t, "Acme Printing", updated.Name)
	assert.Equal(t, "accounts@acme.com", updated.BillingEmail)
	assert.Equal(t, "acme", updated.Slug)
}

func TestUpdateProfileRequiresAdmin(t *testing.T) {
	t.Parallel()

	org := testOrg()
	store, handler := newTestHandler(t, org)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFor(org, principal.RoleStaff, http.MethodPut, `{"name":"Hijacked"}`))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Acme Print Co", store.orgs[org.ID].Name)
}

func TestUpdateProfileRejectsEmptyName(t *testing.T) {
	t.Parallel()

	org := testOrg()
	_, handler := newTestHandler(t, org)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFor(org, principal.RoleAdmin, http.MethodPut, `{"name":"  "}`))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeactivateRequiresOwner(t *testing.T) {
	t.Parallel()

	org := testOrg()
	store, handler := newTestHandler(t, org)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFor(org, principal.RoleAdmin, http.MethodDelete, ""))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, store.orgs[org.ID].Active)
}

func TestDeactivate(t *testing.T) {
	t.Parallel()

	org := testOrg()
	store, handler := newTestHandler(t, org)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFor(org, principal.RoleOwner, http.MethodDelete, ""))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, store.orgs[org.ID].Active)
}
