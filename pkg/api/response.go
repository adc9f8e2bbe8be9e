package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkwellhq/inkwell/pkg/entitlement"
	"github.com/inkwellhq/inkwell/pkg/logger"
)

// JSONResponse is the envelope every API endpoint returns.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// JSON writes a 200 response with the given payload.
func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, JSONResponse{Data: data})
}

// JSONWithMeta writes a 200 response with payload and metadata, used for
// paginated lists.
func JSONWithMeta(w http.ResponseWriter, data any, meta map[string]any) {
	writeJSON(w, http.StatusOK, JSONResponse{Data: data, Meta: meta})
}

// Created writes a 201 response with the created resource.
func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, JSONResponse{Data: data})
}

// NoContent writes a 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error maps the error to an HTTP status and writes the error envelope.
// Server-side failures are logged with request context; client errors are
// the caller's problem and stay out of the log.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	httpErr := MapError(err)

	detail := &ErrorDetail{Code: httpErr.Key}
	if httpErr.Code < http.StatusInternalServerError {
		detail.Message = err.Error()
	} else {
		detail.Message = http.StatusText(httpErr.Code)
		if log != nil {
			log.ErrorContext(r.Context(), "request failed",
				slog.String("path", r.URL.Path), logger.Error(err))
		}
	}

	var limitErr *entitlement.UsageLimitExceededError
	if errors.As(err, &limitErr) {
		detail.Details = map[string][]string{
			"resource": {string(limitErr.Resource)},
		}
	}
	var valErr ValidationError
	if errors.As(err, &valErr) {
		detail.Details = valErr
	}

	writeJSON(w, httpErr.Code, JSONResponse{Error: detail})
}
