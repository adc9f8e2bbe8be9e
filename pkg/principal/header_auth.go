package principal

import (
	"net/http"

	"github.com/google/uuid"
)

// Identity headers set by the upstream auth proxy. The proxy terminates
// authentication; this package only trusts its verified output. The edge
// must strip these headers from client traffic.
const (
	HeaderUserID       = "X-Auth-User-ID"
	HeaderUserOrg      = "X-Auth-Organization-ID"
	HeaderUserRole     = "X-Auth-Role"
	HeaderSuperAdmin   = "X-Auth-Super-Admin"
	superAdminAsserted = "true"
)

// NewHeaderAuthenticator reads the caller identity from trusted proxy
// headers. Requests without a valid user ID fail with ErrUnauthenticated.
func NewHeaderAuthenticator() Authenticator {
	return AuthenticatorFunc(func(r *http.Request) (Principal, error) {
		userID, err := uuid.Parse(r.Header.Get(HeaderUserID))
		if err != nil {
			return Principal{}, ErrUnauthenticated
		}

		p := Principal{
			UserID: userID,
			Role:   RoleStaff,
		}

		if r.Header.Get(HeaderSuperAdmin) == superAdminAsserted {
			p.IsSuperAdmin = true
			return p, nil
		}

		orgID, err := uuid.Parse(r.Header.Get(HeaderUserOrg))
		if err != nil {
			return Principal{}, ErrMissingOrganization
		}
		p.OrganizationID = orgID

		if role := Role(r.Header.Get(HeaderUserRole)); role != "" {
			if roleRank[role] == 0 {
				return Principal{}, ErrUnauthenticated
			}
			p.Role = role
		}
		return p, nil
	})
}
