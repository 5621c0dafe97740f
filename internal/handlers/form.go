package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/diewo77/invoice-web/internal/invoice"
)

// Line inputs repeat once per row in table order.
const (
	fieldLineItemID      = "line.itemID"
	fieldLineDescription = "line.description"
	fieldLineQuantity    = "line.quantity"
	fieldLineRate        = "line.rate"
	fieldLineDiscountPct = "line.discountPct"
)

// draftFromForm rebuilds the editor state from a posted form. Numeric text
// goes through invoice.ParseNumber so blank or invalid input counts as 0.
func draftFromForm(form url.Values) *invoice.Draft {
	d := invoice.NewDraft()
	d.InvoiceID = invoice.ParseID(form.Get("invoiceID"))
	d.InvoiceNo = strings.TrimSpace(form.Get("invoiceNo"))
	d.InvoiceDate = invoice.DateOnly(strings.TrimSpace(form.Get("invoiceDate")))
	d.CustomerName = form.Get("customerName")
	d.Address = form.Get("address")
	d.City = form.Get("city")
	d.Notes = form.Get("notes")

	cols := [][]string{
		form[fieldLineItemID],
		form[fieldLineDescription],
		form[fieldLineQuantity],
		form[fieldLineRate],
		form[fieldLineDiscountPct],
	}
	n := 0
	for _, c := range cols {
		n = max(n, len(c))
	}
	at := func(c []string, i int) string {
		if i < len(c) {
			return c[i]
		}
		return ""
	}
	lines := make([]invoice.LineItem, n)
	for i := range lines {
		lines[i] = invoice.LineItem{
			ItemID:      invoice.ParseID(at(cols[0], i)),
			Description: at(cols[1], i),
			Quantity:    invoice.ParseNumber(at(cols[2], i)),
			Rate:        invoice.ParseNumber(at(cols[3], i)),
			DiscountPct: invoice.ParseNumber(at(cols[4], i)),
		}
	}
	d.SetLines(lines)
	d.SetTaxPercent(invoice.ParseNumber(form.Get("taxPercentage")))
	return d
}

func parseDraft(r *http.Request) (*invoice.Draft, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return draftFromForm(r.PostForm), nil
}
