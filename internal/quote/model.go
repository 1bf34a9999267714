package quote

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates the quote workflow states.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s names a known workflow state.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Actor identifies the authenticated caller of an operation. It is supplied
// by the identity boundary and trusted as-is; the engine performs no
// authentication of its own.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

// ServiceItem is a single priced line on a quote. Items are owned by their
// parent quote, have no identity outside it, and are replaced wholesale on
// update. Insertion order is display order.
type ServiceItem struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Position    int             `json:"position"`
}

// Customer holds the customer details as written on the quote. A value copy,
// not a reference to a stored contact.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// BusinessSnapshot freezes the issuing business profile into the quote, so a
// printed document never silently changes when the profile is edited later.
type BusinessSnapshot struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Address string  `json:"address"`
	LogoURL *string `json:"logo_url,omitempty"`
}

// Quote is the aggregate root. Subtotal, TaxAmount and Total are derived
// from Items and TaxRate; they are stored for display but always recomputed
// on mutation and never accepted from a caller.
type Quote struct {
	ID          uuid.UUID        `json:"id"`
	OwnerID     uuid.UUID        `json:"owner_id"`
	QuoteNumber string           `json:"quote_number"`
	Business    BusinessSnapshot `json:"business"`
	Customer    Customer         `json:"customer"`
	Items       []ServiceItem    `json:"items"`
	Notes       string           `json:"notes"`
	IssueDate   time.Time        `json:"issue_date"`
	ValidUntil  time.Time        `json:"valid_until,omitzero"`
	TaxRate     decimal.Decimal  `json:"tax_rate"`
	Status      Status           `json:"status"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	TaxAmount   decimal.Decimal  `json:"tax_amount"`
	Total       decimal.Decimal  `json:"total"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
