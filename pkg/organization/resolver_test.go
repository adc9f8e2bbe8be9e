package organization_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/pkg/organization"
)

func TestSubdomainResolver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		host   string
		suffix string
		want   string
	}{
		{name: "simple subdomain", host: "acme.inkwell.app", want: "acme"},
		{name: "subdomain with port", host: "acme.inkwell.app:8080", want: "acme"},
		{name: "base domain", host: "inkwell.app", want: ""},
		{name: "www prefix", host: "www.acme.inkwell.app", want: "acme"},
		{name: "with suffix", host: "acme.inkwell.app", suffix: ".inkwell.app", want: "acme"},
		{name: "localhost", host: "localhost:3000", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resolve := organization.NewSubdomainResolver(tt.suffix)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host

			got, err := resolve(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubdomainResolverRejectsMalformed(t *testing.T) {
	t.Parallel()

	resolve := organization.NewSubdomainResolver("")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "-bad.inkwell.app"

	_, err := resolve(req)
	require.ErrorIs(t, err, organization.ErrInvalidIdentifier)
}

func TestHeaderResolver(t *testing.T) {
	t.Parallel()

	resolve := organization.NewHeaderResolver("")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Organization-ID", "acme-print")
	got, err := resolve(req)
	require.NoError(t, err)
	assert.Equal(t, "acme-print", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	got, err = resolve(req)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPathResolver(t *testing.T) {
	t.Parallel()

	resolve := organization.NewPathResolver(2)
	req := httptest.NewRequest(http.MethodGet, "/orgs/acme/orders", nil)

	got, err := resolve(req)
	require.NoError(t, err)
	assert.Equal(t, "acme", got)
}

func TestCompositeResolverFirstNonEmptyWins(t *testing.T) {
	t.Parallel()

	failing := organization.Resolver(func(*http.Request) (string, error) {
		return "", errors.New("boom")
	})
	empty := organization.Resolver(func(*http.Request) (string, error) {
		return "", nil
	})
	hit := organization.Resolver(func(*http.Request) (string, error) {
		return "acme", nil
	})

	resolve := organization.NewCompositeResolver(failing, empty, hit)
	got, err := resolve(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "acme", got)
}
