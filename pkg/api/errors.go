package api

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/inkwellhq/inkwell/pkg/entitlement"
	"github.com/inkwellhq/inkwell/pkg/organization"
	"github.com/inkwellhq/inkwell/pkg/principal"
	"github.com/inkwellhq/inkwell/pkg/scopedb"
	"github.com/inkwellhq/inkwell/pkg/storage"
	"github.com/inkwellhq/inkwell/pkg/subscription"
)

// HTTPError carries an HTTP status code and a stable machine-readable key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string {
	return e.Key
}

// NewHTTPError creates a custom HTTP error.
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrPaymentRequired     = HTTPError{Code: http.StatusPaymentRequired, Key: "payment_required"}
	ErrForbidden           = HTTPError{Code: http.StatusForbidden, Key: "forbidden"}
	ErrNotFound            = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrConflict            = HTTPError{Code: http.StatusConflict, Key: "conflict"}
	ErrUnprocessableEntity = HTTPError{Code: http.StatusUnprocessableEntity, Key: "unprocessable_entity"}
	ErrTooManyRequests     = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests"}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
)

// MapError translates domain errors into HTTP errors. Anything unknown
// becomes a 500 so internals never leak to clients.
func MapError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var limitErr *entitlement.UsageLimitExceededError
	if errors.As(err, &limitErr) {
		return HTTPError{Code: http.StatusPaymentRequired, Key: "usage_limit_exceeded"}
	}

	var valErr ValidationError
	if errors.As(err, &valErr) {
		return HTTPError{Code: http.StatusUnprocessableEntity, Key: "validation_error"}
	}

	switch {
	case errors.Is(err, scopedb.ErrCrossTenant):
		return HTTPError{Code: http.StatusForbidden, Key: "cross_tenant_access"}
	case errors.Is(err, entitlement.ErrFeatureNotAvailable):
		return HTTPError{Code: http.StatusForbidden, Key: "feature_not_available"}
	case errors.Is(err, entitlement.ErrDowngradeNotPossible):
		return HTTPError{Code: http.StatusConflict, Key: "downgrade_not_possible"}
	case errors.Is(err, mongo.ErrNoDocuments),
		errors.Is(err, subscription.ErrNotFound),
		errors.Is(err, subscription.ErrPlanNotFound),
		errors.Is(err, organization.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, organization.ErrSlugTaken):
		return HTTPError{Code: http.StatusConflict, Key: "slug_taken"}
	case errors.Is(err, organization.ErrInvalidIdentifier):
		return ErrBadRequest
	case errors.Is(err, principal.ErrUnauthenticated),
		errors.Is(err, principal.ErrNotInContext),
		errors.Is(err, principal.ErrMissingOrganization):
		return ErrUnauthorized
	case errors.Is(err, principal.ErrForbidden), errors.Is(err, principal.ErrOrganizationScope):
		return ErrForbidden
	case errors.Is(err, subscription.ErrAlreadyExists):
		return HTTPError{Code: http.StatusConflict, Key: "subscription_exists"}
	case errors.Is(err, subscription.ErrInvalidWebhook):
		return ErrBadRequest
	case errors.Is(err, subscription.ErrBillingNotConfigured):
		return HTTPError{Code: http.StatusServiceUnavailable, Key: "billing_not_configured"}
	case errors.Is(err, storage.ErrForeignKey):
		return HTTPError{Code: http.StatusForbidden, Key: "foreign_storage_key"}
	case errors.Is(err, storage.ErrInvalidKey):
		return ErrBadRequest
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrPrefixNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrFileTooLarge):
		return HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "file_too_large"}
	case errors.Is(err, storage.ErrContentTypeNotAllowed):
		return HTTPError{Code: http.StatusUnsupportedMediaType, Key: "content_type_not_allowed"}
	case errors.Is(err, ErrUnsupportedMediaType):
		return HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
	case errors.Is(err, ErrMissingContentType),
		errors.Is(err, ErrInvalidJSON),
		errors.Is(err, ErrEmptyBody):
		return ErrBadRequest
	default:
		return ErrInternalServerError
	}
}
