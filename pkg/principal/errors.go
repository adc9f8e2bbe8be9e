package principal

import "errors"

var (
	ErrUnauthenticated     = errors.New("principal: unauthenticated")
	ErrNotInContext        = errors.New("principal: no principal in context")
	ErrForbidden           = errors.New("principal: forbidden")
	ErrOrganizationScope   = errors.New("principal: organization mismatch")
	ErrMissingOrganization = errors.New("principal: no organization assigned")
)
