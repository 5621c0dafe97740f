package invoice

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Totals are the derived amounts of an invoice, rounded to cents.
type Totals struct {
	SubTotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	InvoiceAmount decimal.Decimal
}

// MarshalJSON emits the totals as plain JSON numbers.
func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SubTotal      float64 `json:"subTotal"`
		TaxAmount     float64 `json:"taxAmount"`
		InvoiceAmount float64 `json:"invoiceAmount"`
	}{
		SubTotal:      t.SubTotal.InexactFloat64(),
		TaxAmount:     t.TaxAmount.InexactFloat64(),
		InvoiceAmount: t.InvoiceAmount.InexactFloat64(),
	})
}

// Calculate derives the invoice totals from its lines and a tax percentage.
//
// Amounts are rounded half away from zero to two places. The tax is taken
// on the rounded subtotal so that InvoiceAmount == SubTotal + TaxAmount
// holds exactly. Negative quantities, rates and discounts above 100% are
// not rejected. Inputs must be finite; callers coerce raw input first.
func Calculate(lines []LineItem, taxPercent float64) Totals {
	sum := decimal.Zero
	for _, ln := range lines {
		sum = sum.Add(lineAmount(ln))
	}
	sub := sum.Round(2)
	tax := sub.Mul(decimal.NewFromFloat(taxPercent).Shift(-2)).Round(2)
	return Totals{
		SubTotal:      sub,
		TaxAmount:     tax,
		InvoiceAmount: sub.Add(tax),
	}
}

// LineTotal is the displayed total of a single line, rounded to cents.
func LineTotal(ln LineItem) decimal.Decimal {
	return lineAmount(ln).Round(2)
}

// lineAmount is quantity * rate * (1 - discountPct/100), unrounded.
func lineAmount(ln LineItem) decimal.Decimal {
	keep := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(ln.DiscountPct).Shift(-2))
	return decimal.NewFromFloat(ln.Quantity).
		Mul(decimal.NewFromFloat(ln.Rate)).
		Mul(keep)
}

// Recompute refreshes the derived totals from the current lines.
func (d *Draft) Recompute() Totals {
	t := Calculate(d.Lines, d.TaxPercent)
	d.applyTotals(t)
	return t
}

func (d *Draft) applyTotals(t Totals) {
	d.SubTotal = t.SubTotal.InexactFloat64()
	d.TaxAmount = t.TaxAmount.InexactFloat64()
	d.InvoiceAmount = t.InvoiceAmount.InexactFloat64()
}
