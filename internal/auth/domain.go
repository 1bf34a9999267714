package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/quotedesk/quotedesk/internal/quote"
)

// User represents an authenticated business account.
type User struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	BusinessName    string    `json:"business_name"`
	BusinessPhone   string    `json:"business_phone"`
	BusinessAddress string    `json:"business_address"`
	LogoURL         *string   `json:"logo_url,omitempty"`
	IsAdmin         bool      `json:"is_admin"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Actor converts the user into the trusted actor handed to the quote engine.
func (u *User) Actor() quote.Actor {
	return quote.Actor{ID: u.ID, Admin: u.IsAdmin}
}

// Snapshot copies the current business profile for embedding into a quote.
// Later profile edits never reach quotes already written.
func (u *User) Snapshot() quote.BusinessSnapshot {
	return quote.BusinessSnapshot{
		Name:    u.BusinessName,
		Phone:   u.BusinessPhone,
		Address: u.BusinessAddress,
		LogoURL: u.LogoURL,
	}
}
