// Package uploads serves artwork file uploads. Files live in the blobstore
// under the organization's key prefix; total bytes stored count against the
// plan's storage limit.
package uploads

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkwellhq/inkwell/pkg/api"
	"github.com/inkwellhq/inkwell/pkg/entitlement"
	"github.com/inkwellhq/inkwell/pkg/plan"
	"github.com/inkwellhq/inkwell/pkg/principal"
	"github.com/inkwellhq/inkwell/pkg/storage"
)

const (
	// maxUploadBytes caps a single artwork file. Plan storage limits cap
	// the total, not the individual file.
	maxUploadBytes = 100 << 20 // 100 MB

	// memoryLimit bounds how much of the multipart body is buffered in
	// memory before spilling to disk.
	memoryLimit = 10 << 20
)

var errNotArtwork = api.NewHTTPError(http.StatusUnsupportedMediaType, "not_an_artwork_file")

// Handler serves the artwork upload JSON API.
type Handler struct {
	blobs storage.Blobstore
	ent   *entitlement.Service
	log   *slog.Logger
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

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler creates the uploads handler.
func NewHandler(blobs storage.Blobstore, ent *entitlement.Service, opts ...Option) *Handler {
	if blobs == nil {
		panic("uploads: blobstore is required")
	}
	if ent == nil {
		panic("uploads: entitlement service is required")
	}
	h := &Handler{
		blobs: blobs,
		ent:   ent,
		log:   slog.New(slog.DiscardHandler),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle returns the upload routes.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.upload)
	r.Delete("/*", h.delete)
	return r
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	if err := h.ent.CheckUsageLimit(ctx, p.OrganizationID, plan.ResourceStorage); err != nil {
		api.Error(w, r, h.log, err)
		return
	}

	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		api.Error(w, r, h.log, api.ErrBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		verr := api.ValidationError{}
		verr.Add("file", "file is required")
		api.Error(w, r, h.log, verr)
		return
	}
	fh := files[0]

	if err := storage.ValidateSize(fh, maxUploadBytes); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if !storage.IsArtwork(fh) {
		api.Error(w, r, h.log, errNotArtwork)
		return
	}

	key := storage.ObjectKey(p.OrganizationID, fh.Filename)
	obj, err := h.blobs.Upload(ctx, fh, key)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.Created(w, obj)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	prefix := storage.OrgPrefix(p.OrganizationID)
	entries, err := h.blobs.List(ctx, prefix)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if entries == nil {
		entries = []storage.Entry{}
	}

	used, err := h.blobs.TotalSize(ctx, prefix)
	if err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.JSONWithMeta(w, entries, map[string]any{
		"usedBytes": used,
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal.FromContext(ctx)
	if !ok {
		api.Error(w, r, h.log, principal.ErrNotInContext)
		return
	}

	key := chi.URLParam(r, "*")
	if err := storage.ValidateKey(p.OrganizationID, key); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	if !h.blobs.Exists(ctx, key) {
		api.Error(w, r, h.log, storage.ErrNotFound)
		return
	}
	if err := h.blobs.Delete(ctx, key); err != nil {
		api.Error(w, r, h.log, err)
		return
	}
	api.NoContent(w)
}

// StorageCounter returns a usage counter reporting the organization's blob
// usage in whole megabytes, rounded up so a single byte over N MB counts as
// N+1.
func StorageCounter(blobs storage.Blobstore) entitlement.CounterFunc {
	return func(ctx context.Context, orgID uuid.UUID) (int64, error) {
		used, err := blobs.TotalSize(ctx, storage.OrgPrefix(orgID))
		if err != nil {
			return 0, err
		}
		const mb = 1 << 20
		return (used + mb - 1) / mb, nil
	}
}
