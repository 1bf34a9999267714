// Package pdf renders quotes as printable PDF documents. It is a read-only
// consumer of the quote aggregate: totals come from the engine, never from
// the renderer.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/quotedesk/quotedesk/internal/quote"
)

// Generator builds quote PDFs with the core Latin fonts.
type Generator struct {
	currency string
}

// NewGenerator constructs a Generator using the given currency symbol for
// displayed amounts.
func NewGenerator(currency string) *Generator {
	if currency == "" {
		currency = "$"
	}
	return &Generator{currency: currency}
}

// Render produces the PDF bytes for a quote.
func (g *Generator) Render(q quote.Quote) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Quote "+q.QuoteNumber, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, q.Business.Name)
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 10)
	if q.Business.Address != "" {
		pdf.Cell(0, 5, q.Business.Address)
		pdf.Ln(5)
	}
	if q.Business.Phone != "" {
		pdf.Cell(0, 5, q.Business.Phone)
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Quote %s", q.QuoteNumber))
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, fmt.Sprintf("Issued: %s", q.IssueDate.Format("2006-01-02")))
	pdf.Ln(5)
	if !q.ValidUntil.IsZero() {
		pdf.Cell(0, 5, fmt.Sprintf("Valid until: %s", q.ValidUntil.Format("2006-01-02")))
		pdf.Ln(5)
	}

	if q.Customer.Name != "" {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 5, "For:")
		pdf.Ln(5)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 5, q.Customer.Name)
		pdf.Ln(5)
		for _, line := range []string{q.Customer.Address, q.Customer.Email, q.Customer.Phone} {
			if line != "" {
				pdf.Cell(0, 5, line)
				pdf.Ln(5)
			}
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(100, 7, "Description")
	pdf.Cell(25, 7, "Qty")
	pdf.Cell(30, 7, "Unit Price")
	pdf.Cell(30, 7, "Amount")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, it := range q.Items {
		pdf.Cell(100, 6, trim(it.Description, 58))
		pdf.Cell(25, 6, it.Quantity.String())
		pdf.Cell(30, 6, quote.FormatAmount(it.UnitPrice, g.currency))
		pdf.Cell(30, 6, quote.FormatAmount(it.Quantity.Mul(it.UnitPrice), g.currency))
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(155, 6, "Subtotal")
	pdf.Cell(30, 6, quote.FormatAmount(q.Subtotal, g.currency))
	pdf.Ln(6)
	pdf.Cell(155, 6, fmt.Sprintf("Tax (%s%%)", q.TaxRate.String()))
	pdf.Cell(30, 6, quote.FormatAmount(q.TaxAmount, g.currency))
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(155, 7, "Total")
	pdf.Cell(30, 7, quote.FormatAmount(q.Total, g.currency))
	pdf.Ln(10)

	if q.Notes != "" {
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, q.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "..."
}
