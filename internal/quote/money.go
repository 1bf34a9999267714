package quote

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const maxDescriptionLen = 500

var oneHundred = decimal.NewFromInt(100)

// Subtotal sums quantity x unit price over all items in exact decimal
// arithmetic. Returns zero for an empty list.
func Subtotal(items []ServiceItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Quantity.Mul(it.UnitPrice))
	}
	return sum
}

// Tax computes subtotal x ratePercent / 100.
func Tax(subtotal, ratePercent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(ratePercent).Div(oneHundred)
}

// TotalOf computes subtotal + taxAmount.
func TotalOf(subtotal, taxAmount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(taxAmount)
}

// RoundMoney normalises an amount to two decimal places. Round rounds half
// away from zero; amounts here are non-negative, which makes it round-half-up.
// Every persisted amount passes through this so all consumers render the same
// figure.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeTotals derives the stored subtotal, tax and total from the quote's
// items and tax rate. Tax applies to the rounded subtotal, so
// Total == Subtotal + TaxAmount holds exactly at two decimal places.
func (q *Quote) ComputeTotals() {
	q.Subtotal = RoundMoney(Subtotal(q.Items))
	q.TaxAmount = RoundMoney(Tax(q.Subtotal, q.TaxRate))
	q.Total = TotalOf(q.Subtotal, q.TaxAmount)
}

// ValidateItem checks a single line item.
func ValidateItem(it ServiceItem) error {
	desc := strings.TrimSpace(it.Description)
	if desc == "" {
		return invalidf("description", "must not be empty")
	}
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return invalidf("description", "must be at most %d characters", maxDescriptionLen)
	}
	if !it.Quantity.IsPositive() {
		return invalidf("quantity", "must be positive")
	}
	if it.UnitPrice.IsNegative() {
		return invalidf("unit_price", "must not be negative")
	}
	return nil
}

// ValidateTaxRate checks the percentage is within [0, 100].
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(oneHundred) {
		return invalidf("tax_rate", "must be between 0 and 100")
	}
	return nil
}

var displayPrinter = message.NewPrinter(language.English)

// FormatAmount renders an amount for display with a currency symbol and
// thousands separators. Presentation only; the exact decimal amount is what
// gets persisted and compared.
func FormatAmount(amount decimal.Decimal, symbol string) string {
	f, _ := RoundMoney(amount).Float64()
	return symbol + displayPrinter.Sprintf("%v", number.Decimal(f, number.Scale(2)))
}
