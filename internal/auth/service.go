package auth

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quotedesk/quotedesk/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// UserByID loads an active user; used by the session middleware.
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

// UpdateBusiness edits the account's business profile. Existing quotes keep
// their snapshot; only future quotes pick up the new details.
func (s *Service) UpdateBusiness(ctx context.Context, id uuid.UUID, name, phone, address string, logoURL *string) (*User, error) {
	if err := s.repo.UpdateBusiness(ctx, id, name, phone, address, logoURL); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}
