package organization

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

const (
	// MaxIdentifierLength keeps identifiers DNS-compatible and bounds the
	// cache key size.
	MaxIdentifierLength = 63
)

// identifierPattern allows slugs and UUID strings: alphanumeric start,
// hyphens inside.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*$`)

// Resolver extracts an organization identifier from an HTTP request.
// Returns empty string if none is found, error if extraction failed.
type Resolver func(r *http.Request) (string, error)

func isValidIdentifier(id string) bool {
	if id == "" || len(id) > MaxIdentifierLength {
		return false
	}
	return identifierPattern.MatchString(id)
}

// NewSubdomainResolver extracts the organization slug from the request
// subdomain, optionally stripping a suffix like ".inkwell.app". Returns
// empty string for the base domain.
func NewSubdomainResolver(suffix string) Resolver {
	return func(req *http.Request) (string, error) {
		host := req.Host

		if idx := strings.LastIndex(host, ":"); idx != -1 {
			host = host[:idx]
		}

		originalParts := strings.Split(host, ".")

		if suffix != "" && strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			host = host[:len(host)-len(suffix)]
		}

		parts := strings.Split(host, ".")
		if len(parts) == 0 || parts[0] == "" {
			return "", nil
		}

		subdomain := parts[0]
		if subdomain == "www" {
			if len(parts) > 1 {
				subdomain = parts[1]
			} else {
				return "", nil
			}
		}

		// Require at least subdomain.domain.tld structure
		if len(originalParts) < 3 {
			return "", nil
		}

		subdomain = strings.TrimSpace(subdomain)
		if subdomain == "" {
			return "", nil
		}
		if !isValidIdentifier(subdomain) {
			return "", fmt.Errorf("%w: subdomain '%s'", ErrInvalidIdentifier, subdomain)
		}
		return subdomain, nil
	}
}

// NewHeaderResolver extracts the organization identifier from an HTTP header.
// Defaults to "X-Organization-ID" if headerName is empty.
func NewHeaderResolver(headerName string) Resolver {
	if headerName == "" {
		headerName = "X-Organization-ID"
	}

	return func(req *http.Request) (string, error) {
		value := strings.TrimSpace(req.Header.Get(headerName))
		if value == "" {
			return "", nil
		}
		if !isValidIdentifier(value) {
			return "", fmt.Errorf("%w: header value '%s'", ErrInvalidIdentifier, value)
		}
		return value, nil
	}
}

// NewPathResolver extracts the organization identifier from a URL path
// segment at a 1-based position. Position 2 extracts from /orgs/{id}/orders.
func NewPathResolver(position int) Resolver {
	return func(req *http.Request) (string, error) {
		if position < 1 {
			return "", fmt.Errorf("invalid path position: %d", position)
		}

		path := strings.TrimPrefix(req.URL.Path, "/")
		path = strings.TrimSuffix(path, "/")
		if path == "" {
			return "", nil
		}

		parts := strings.Split(path, "/")
		if position > len(parts) {
			return "", nil
		}

		value := strings.TrimSpace(parts[position-1])
		if value == "" {
			return "", nil
		}
		if !isValidIdentifier(value) {
			return "", fmt.Errorf("%w: path segment '%s'", ErrInvalidIdentifier, value)
		}
		return value, nil
	}
}

// NewCompositeResolver tries multiple resolvers in order, returning the
// first non-empty result. Aggregates errors from all resolvers.
func NewCompositeResolver(resolvers ...Resolver) Resolver {
	return func(r *http.Request) (string, error) {
		var errs []error

		for _, resolver := range resolvers {
			id, err := resolver(r)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if id != "" {
				return id, nil
			}
		}

		if len(errs) > 0 {
			return "", fmt.Errorf("composite resolver errors: %w", errors.Join(errs...))
		}
		return "", nil
	}
}
