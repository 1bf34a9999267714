package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotedesk/quotedesk/internal/shared"
)

// Repository provides user persistence for the identity boundary.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateBusiness(ctx context.Context, id uuid.UUID, name, phone, address string, logoURL *string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `
	id, email, password_hash,
	business_name, business_phone, business_address, logo_url,
	is_admin, is_active, created_at, updated_at`

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *repository) UpdateBusiness(ctx context.Context, id uuid.UUID, name, phone, address string, logoURL *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET
			business_name = $1, business_phone = $2, business_address = $3, logo_url = $4,
			updated_at = NOW()
		WHERE id = $5
	`, name, phone, address, logoURL, id)
	if err != nil {
		return fmt.Errorf("update business profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash,
		&u.BusinessName, &u.BusinessPhone, &u.BusinessAddress, &u.LogoURL,
		&u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}
