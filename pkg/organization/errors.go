package organization

import "errors"

var (
	ErrNotFound          = errors.New("organization not found")
	ErrInvalidIdentifier = errors.New("invalid organization identifier")
	ErrNotInContext      = errors.New("no organization in context")
	ErrInactive          = errors.New("organization is inactive")
	ErrSlugTaken         = errors.New("organization slug already taken")
	ErrFailedToCreate    = errors.New("failed to create organization")
	ErrFailedToUpdate    = errors.New("failed to update organization")
)
