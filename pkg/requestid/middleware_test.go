package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/pkg/requestid"
)

func serve(t *testing.T, inbound string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	var inContext string
	handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inContext = requestid.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	if inbound != "" {
		req.Header.Set(requestid.Header, inbound)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, inContext
}

func TestMiddlewareAdoptsInboundID(t *testing.T) {
	t.Parallel()

	rec, inContext := serve(t, "gateway-7f3a_01")

	assert.Equal(t, "gateway-7f3a_01", rec.Header().Get(requestid.Header))
	assert.Equal(t, "gateway-7f3a_01", inContext)
}

func TestMiddlewareGeneratesWhenAbsent(t *testing.T) {
	t.Parallel()

	rec, inContext := serve(t, "")

	echoed := rec.Header().Get(requestid.Header)
	require.NotEmpty(t, echoed)
	assert.Equal(t, echoed, inContext, "context and response header must agree")

	_, err := uuid.Parse(echoed)
	assert.NoError(t, err, "generated IDs are UUIDs")
}

func TestMiddlewareRejectsHostileIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		inbound string
	}{
		{"log injection newline", "abc\ndef"},
		{"header splitting", "abc\r\nSet-Cookie: x"},
		{"spaces", "not a token"},
		{"over length cap", strings.Repeat("a", 129)},
		{"non ascii", "идентификатор"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, inContext := serve(t, tt.inbound)

			echoed := rec.Header().Get(requestid.Header)
			assert.NotEqual(t, tt.inbound, echoed, "hostile ID must be replaced")
			_, err := uuid.Parse(echoed)
			assert.NoError(t, err)
			assert.Equal(t, echoed, inContext)
		})
	}
}

func TestMiddlewareAcceptsLengthCap(t *testing.T) {
	t.Parallel()

	id := strings.Repeat("b", 128)
	rec, _ := serve(t, id)
	assert.Equal(t, id, rec.Header().Get(requestid.Header))
}

func TestFromContextAbsent(t *testing.T) {
	t.Parallel()

	assert.Empty(t, requestid.FromContext(context.Background()))
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LoggerExtractor()

	ctx := requestid.WithContext(context.Background(), "req-123")
	attr, ok := extract(ctx)
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "req-123", attr.Value.String())

	_, ok = extract(context.Background())
	assert.False(t, ok)
}
