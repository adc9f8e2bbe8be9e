package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

var (
	ErrMissingContentType   = errors.New("missing content type")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid json body")
	ErrEmptyBody            = errors.New("empty request body")
)

// DecodeJSON decodes a JSON request body into v. Unknown fields are
// rejected so typos in client payloads fail loudly instead of silently
// dropping data.
func DecodeJSON(r *http.Request, v any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, contentType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// ValidationError maps field names to their validation failures. It
// renders as a 422 with per-field details.
type ValidationError map[string][]string

func (e ValidationError) Error() string {
	return "validation failed"
}

// Add appends a failure message for a field.
func (e ValidationError) Add(field, message string) {
	e[field] = append(e[field], message)
}
