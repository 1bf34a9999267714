package quote

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemRequest carries one line item. Numeric range checks happen in the
// service via the money validators, so decimals stay exact end to end.
type ItemRequest struct {
	ID          *uuid.UUID      `json:"id,omitempty"`
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=50"`
	Address string `json:"address" validate:"max=500"`
}

type CreateQuoteRequest struct {
	Customer   CustomerRequest `json:"customer" validate:"required"`
	Items      []ItemRequest   `json:"items" validate:"dive"`
	Notes      string          `json:"notes"`
	ValidUntil time.Time       `json:"valid_until,omitzero"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
}

// UpdateQuoteRequest is a replace-all patch: a present field replaces the
// stored value wholesale, an absent field leaves it untouched. Identity
// fields (id, owner, quote number, issue date) are not part of the patch
// surface at all.
type UpdateQuoteRequest struct {
	Customer   *CustomerRequest `json:"customer,omitempty"`
	Items      *[]ItemRequest   `json:"items,omitempty" validate:"omitempty,dive"`
	Notes      *string          `json:"notes,omitempty"`
	ValidUntil *time.Time       `json:"valid_until,omitempty"`
	TaxRate    *decimal.Decimal `json:"tax_rate,omitempty"`
	Status     *Status          `json:"status,omitempty"`
}

type ListQuotesRequest struct {
	OwnerID uuid.UUID
	Status  *Status
	Page    int
	PerPage int
}
