package scopedb

import "errors"

// ErrCrossTenant is returned when a caller-supplied filter explicitly names
// a different organization than the one the client is bound to, or when an
// update document tries to rewrite the organization field. It is the
// only error this layer introduces; driver errors pass through unchanged.
// Handlers must surface it as an authorization failure, never retry with a
// corrected scope.
var ErrCrossTenant = errors.New("scopedb: cross-tenant access denied")
