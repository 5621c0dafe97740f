package invoice

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Load builds an editable draft from an invoice returned by the remote API.
//
// Missing row numbers are filled with their position, the date is cut to
// its YYYY-MM-DD prefix and the stored totals are kept as-is for display.
func Load(raw []byte) (*Draft, error) {
	p, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	obj := gjson.ParseBytes(raw)

	d := &Draft{
		CustomerName:  p.CustomerName,
		Address:       p.Address,
		City:          p.City,
		TaxPercent:    p.TaxPercent,
		Notes:         p.Notes,
		SubTotal:      p.SubTotal,
		TaxAmount:     p.TaxAmount,
		InvoiceAmount: p.InvoiceAmount,
		Lines:         make([]LineItem, 0, len(p.Lines)),
		Audit: Audit{
			CreatedBy: keyCreatedBy.text(obj),
			CreatedOn: keyCreatedOn.text(obj),
			UpdatedBy: keyUpdatedBy.text(obj),
			UpdatedOn: keyUpdatedOn.text(obj),
		},
	}
	if p.InvoiceID != 0 {
		id := p.InvoiceID
		d.InvoiceID = &id
	}
	if p.InvoiceNo != nil {
		d.InvoiceNo = FormatNumber(*p.InvoiceNo)
	}
	if p.InvoiceDate != nil {
		d.InvoiceDate = DateOnly(*p.InvoiceDate)
	}
	for _, pl := range p.Lines {
		ln := LineItem{
			RowNo:       pl.RowNo,
			Description: pl.Description,
			Quantity:    pl.Quantity,
			Rate:        pl.Rate,
			DiscountPct: pl.DiscountPct,
		}
		if pl.ItemID != 0 {
			id := pl.ItemID
			ln.ItemID = &id
		}
		d.Lines = append(d.Lines, ln)
	}
	return d, nil
}

// Title is the heading used for the editor and the print view.
func (d *Draft) Title() string {
	switch {
	case d.IsNew():
		return "New Invoice"
	case d.InvoiceNo != "":
		return "Invoice #" + d.InvoiceNo
	default:
		return fmt.Sprintf("Invoice #%d", *d.InvoiceID)
	}
}

// NameLookup resolves a catalog item id to its display name. An empty
// result means the name is unknown.
type NameLookup func(itemID int64) string

// Describe returns the text shown for a line: its own description, else
// the catalog item name, else a generic "Item ID n" label.
func Describe(ln LineItem, lookup NameLookup) string {
	if ln.Description != "" {
		return ln.Description
	}
	if ln.ItemID == nil {
		return ""
	}
	if lookup != nil {
		if name := lookup(*ln.ItemID); name != "" {
			return name
		}
	}
	return fmt.Sprintf("Item ID %d", *ln.ItemID)
}
