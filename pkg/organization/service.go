package organization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwellhq/inkwell/pkg/slug"
)

// Store is the persistence surface of the registration service.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, org *Organization) error
	Update(ctx context.Context, org *Organization) error
}

// Service handles organization registration and profile updates.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithServiceLogger sets a custom logger.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates the registration service. Panics when store is nil.
func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic("organization: store is required")
	}
	s := &Service{
		store: store,
		log:   slog.New(slog.DiscardHandler),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterParams carries the signup form fields.
type RegisterParams struct {
	Name         string
	BillingEmail string
	// Slug is optional; when empty it is derived from the name.
	Slug string
}

// Register creates a new active organization. The slug is derived from the
// name when not provided, with a random suffix appended on collision.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Organization, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrFailedToCreate)
	}
	billingEmail := strings.TrimSpace(strings.ToLower(params.BillingEmail))
	if billingEmail == "" {
		return nil, fmt.Errorf("%w: billing email is required", ErrFailedToCreate)
	}

	orgSlug := params.Slug
	if orgSlug == "" {
		orgSlug = slug.Make(name, slug.MaxLength(MaxIdentifierLength))
	}
	if !isValidIdentifier(orgSlug) {
		return nil, fmt.Errorf("%w: slug '%s'", ErrInvalidIdentifier, orgSlug)
	}

	taken, err := s.store.SlugExists(ctx, orgSlug)
	if err != nil {
		return nil, errors.Join(ErrFailedToCreate, err)
	}
	if taken {
		if params.Slug != "" {
			return nil, ErrSlugTaken
		}
		// Derived slug collided, retry with a random suffix.
		orgSlug = slug.Make(name, slug.MaxLength(MaxIdentifierLength), slug.WithSuffix(6))
	}

	now := s.now()
	org := &Organization{
		ID:           uuid.New(),
		Slug:         orgSlug,
		Name:         name,
		BillingEmail: billingEmail,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, org); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return nil, ErrSlugTaken
		}
		return nil, errors.Join(ErrFailedToCreate, err)
	}

	s.log.InfoContext(ctx, "organization registered",
		slog.String("organization_id", org.ID.String()),
		slog.String("slug", org.Slug))
	return org, nil
}

// UpdateProfileParams carries the editable profile fields. Nil fields are
// left unchanged.
type UpdateProfileParams struct {
	Name         *string
	LogoURL      *string
	BillingEmail *string
}

// UpdateProfile applies partial updates to the organization profile.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (*Organization, error) {
	org, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrFailedToUpdate)
		}
		org.Name = name
	}
	if params.LogoURL != nil {
		org.LogoURL = *params.LogoURL
	}
	if params.BillingEmail != nil {
		email := strings.TrimSpace(strings.ToLower(*params.BillingEmail))
		if email == "" {
			return nil, fmt.Errorf("%w: billing email cannot be empty", ErrFailedToUpdate)
		}
		org.BillingEmail = email
	}
	org.UpdatedAt = s.now()

	if err := s.store.Update(ctx, org); err != nil {
		return nil, errors.Join(ErrFailedToUpdate, err)
	}
	return org, nil
}

// Deactivate marks the organization inactive. Resolution middleware rejects
// inactive organizations, which cuts off all tenant traffic.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	org, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !org.Active {
		return nil
	}
	org.Active = false
	org.UpdatedAt = s.now()

	if err := s.store.Update(ctx, org); err != nil {
		return errors.Join(ErrFailedToUpdate, err)
	}
	s.log.InfoContext(ctx, "organization deactivated",
		slog.String("organization_id", id.String()))
	return nil
}

// BillingEmail looks up the billing contact for an organization. It
// satisfies the contact source used for trial notifications.
func (s *Service) BillingEmail(ctx context.Context, orgID string) (string, error) {
	id, err := uuid.Parse(orgID)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidIdentifier, orgID)
	}
	org, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return org.BillingEmail, nil
}
