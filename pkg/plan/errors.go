package plan

import "errors"

var (
	ErrEmptyCatalog      = errors.New("plan catalog is empty")
	ErrInvalidPlan       = errors.New("invalid plan configuration")
	ErrFailedToLoadPlans = errors.New("failed to load plan catalog")
)
