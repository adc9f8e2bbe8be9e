package organization

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Organization is a print shop account. Every piece of tenant data in the
// system hangs off one of these via its ID.
type Organization struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	LogoURL      string    `json:"logo_url,omitempty"`
	BillingEmail string    `json:"billing_email"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Provider loads organizations from a data source. The identifier may be a
// UUID string or a slug; implementations decide which formats they accept.
// Returns ErrNotFound when nothing matches.
type Provider interface {
	GetByIdentifier(ctx context.Context, identifier string) (*Organization, error)
}
