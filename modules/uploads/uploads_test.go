package uploads_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/modules/uploads"
	"github.com/inkwellhq/inkwell/pkg/entitlement"
	"github.com/inkwellhq/inkwell/pkg/plan"
	"github.com/inkwellhq/inkwell/pkg/principal"
	"github.com/inkwellhq/inkwell/pkg/storage"
	"github.com/inkwellhq/inkwell/pkg/subscription"
)

type fakeSubs struct{}

func (fakeSubs) Get(context.Context, string) (*subscription.Subscription, error) {
	return nil, subscription.ErrNotFound
}

func newTestHandler(t *testing.T, usedMb int64) (storage.Blobstore, http.Handler) {
	t.Helper()

	blobs, err := storage.NewLocalBlobstore(t.TempDir(), "http://localhost/files")
	require.NoError(t, err)

	ent, err := entitlement.NewService(context.Background(), plan.Builtin(), fakeSubs{}, entitlement.WithCounters(entitlement.CounterRegistry{
		plan.ResourceStorage: func(context.Context, uuid.UUID) (int64, error) {
			return usedMb, nil
		},
	}))
	require.NoError(t, err)

	h := uploads.NewHandler(blobs, ent)
	return blobs, h.Handle()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, org uuid.UUID, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	p := principal.Principal{UserID: uuid.New(), OrganizationID: org, Role: principal.RoleStaff}
	return req.WithContext(principal.WithPrincipal(req.Context(), p))
}

func authedRequest(org uuid.UUID, method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	p := principal.Principal{UserID: uuid.New(), OrganizationID: org, Role: principal.RoleStaff}
	return req.WithContext(principal.WithPrincipal(req.Context(), p))
}

func TestUploadArtwork(t *testing.T) {
	t.Parallel()

	org := uuid.New()
	blobs, handler := newTestHandler(t, 0)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartRequest(t, org, "logo.png", pngBytes(t)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data storage.Object `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "logo.png", resp.Data.Filename)
	assert.True(t, blobs.Exists(context.Background(), resp.Data.Key))
	assert.NoError(t, storage.ValidateKey(org, resp.Data.Key))
}

func TestUploadRejectsNonArtwork(t *testing.T) {
	t.Parallel()

	org := uuid.New()
	_, handler := newTestHandler(t, 0)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartRequest(t, org, "malware.exe", []byte("MZ\x90\x00")))

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_an_artwork_file")
}

func TestUploadAtStorageLimit(t *testing.T) {
	t.Parallel()

	org := uuid.New()
	// Basic caps storage at 512 MB.
	_, handler := newTestHandler(t, 512)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartRequest(t, org, "logo.png", pngBytes(t)))

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestUploadWithoutFile(t *testing.T) {
	t.Parallel()

	org := uuid.New()
	_, handler := newTestHandler(t, 0)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("note", "no file here"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	p := principal.Principal{UserID: uuid.New(), OrganizationID: org, Role: principal.RoleStaff}
	req = req.WithContext(principal.WithPrincipal(req.Context(), p))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "file is required")
}

func TestListShowsOnlyOwnFiles(t *testing.T) {
	t.Parallel()

	org := uuid.New()
	other := uuid.New()
	_, handler := newTestHandler(t, 0)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartRequest(t, org, "mine.png", pngBytes(t)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartRequest(t, other, "theirs.png", pngBytes(t)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(org, http.MethodGet, "/"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "theirs")
}

func TestDeleteRejectsForeignKey(t *testing.T) {
	t.Parallel()

	org := uuid.New()
	other := uuid.New()
	blobs, handler := newTestHandler(t, 0)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartRequest(t, other, "theirs.png", pngBytes(t)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data storage.Object `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(org, http.MethodDelete, "/"+resp.Data.Key))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, blobs.Exists(context.Background(), resp.Data.Key))
}

func TestDeleteOwnFile(t *testing.T) {
	t.Parallel()

	org := uuid.New()
	blobs, handler := newTestHandler(t, 0)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartRequest(t, org, "logo.png", pngBytes(t)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data storage.Object `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(org, http.MethodDelete, "/"+resp.Data.Key))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, blobs.Exists(context.Background(), resp.Data.Key))
}

func TestStorageCounterRoundsUp(t *testing.T) {
	t.Parallel()

	blobs, err := storage.NewLocalBlobstore(t.TempDir(), "http://localhost/files")
	require.NoError(t, err)

	org := uuid.New()
	counter := uploads.StorageCounter(blobs)

	used, err := counter(context.Background(), org)
	require.NoError(t, err)
	assert.Zero(t, used)
}
