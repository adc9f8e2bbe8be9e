package principal

import (
	"github.com/google/uuid"
)

// Role is the principal's role within its organization.
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleAgent Role = "agent"
)

// roleRank orders roles for privilege comparison. Higher ranks include the
// capabilities of lower ones.
var roleRank = map[Role]int{
	RoleAgent: 1,
	RoleStaff: 2,
	RoleAdmin: 3,
	RoleOwner: 4,
}

// Principal is the authenticated caller. Authentication itself happens
// upstream; this package only consumes the verified identity.
//
// Super admins are platform operators not tied to any organization;
// OrganizationID is the zero UUID for them.
type Principal struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           Role
	IsSuperAdmin   bool
}

// HasRole reports whether the principal's role meets or exceeds the
// required one. Super admins always pass.
func (p Principal) HasRole(required Role) bool {
	if p.IsSuperAdmin {
		return true
	}
	return roleRank[p.Role] >= roleRank[required]
}

// BelongsTo reports whether the principal is a member of the organization.
// Super admins belong to none; they operate through unscoped access.
func (p Principal) BelongsTo(orgID uuid.UUID) bool {
	return !p.IsSuperAdmin && p.OrganizationID == orgID
}
