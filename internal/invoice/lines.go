package invoice

import "errors"

// ErrLineIndex is returned when a line mutation targets a missing row.
var ErrLineIndex = errors.New("invoice: line index out of range")

// LinePatch is a partial update of a line. Nil fields are left untouched.
// ClearItem drops the catalog reference and takes precedence over ItemID.
type LinePatch struct {
	ItemID      *int64
	ClearItem   bool
	Description *string
	Quantity    *float64
	Rate        *float64
	DiscountPct *float64
}

// AddLine appends a blank line (quantity 1, no item) and returns it.
func (d *Draft) AddLine() LineItem {
	ln := LineItem{
		RowNo:    len(d.Lines) + 1,
		Quantity: 1,
	}
	d.Lines = append(d.Lines, ln)
	d.Recompute()
	return ln
}

// UpdateLine applies p to the line at index i. RowNo is never changed.
func (d *Draft) UpdateLine(i int, p LinePatch) error {
	if i < 0 || i >= len(d.Lines) {
		return ErrLineIndex
	}
	ln := d.Lines[i]
	switch {
	case p.ClearItem:
		ln.ItemID = nil
	case p.ItemID != nil:
		id := *p.ItemID
		ln.ItemID = &id
	}
	if p.Description != nil {
		ln.Description = *p.Description
	}
	if p.Quantity != nil {
		ln.Quantity = finite(*p.Quantity)
	}
	if p.Rate != nil {
		ln.Rate = finite(*p.Rate)
	}
	if p.DiscountPct != nil {
		ln.DiscountPct = finite(*p.DiscountPct)
	}
	d.Lines[i] = ln
	d.Recompute()
	return nil
}

// RemoveLine deletes the line at index i and renumbers the remaining rows.
func (d *Draft) RemoveLine(i int) error {
	if i < 0 || i >= len(d.Lines) {
		return ErrLineIndex
	}
	lines := make([]LineItem, 0, len(d.Lines)-1)
	lines = append(lines, d.Lines[:i]...)
	lines = append(lines, d.Lines[i+1:]...)
	d.Lines = renumber(lines)
	d.Recompute()
	return nil
}

// SetLines replaces all lines, renumbering them 1..N in the given order.
// Numbers are coerced the same way as UpdateLine.
func (d *Draft) SetLines(lines []LineItem) {
	out := make([]LineItem, len(lines))
	for i, ln := range lines {
		ln.Quantity = finite(ln.Quantity)
		ln.Rate = finite(ln.Rate)
		ln.DiscountPct = finite(ln.DiscountPct)
		out[i] = ln
	}
	d.Lines = renumber(out)
	d.Recompute()
}

// SetTaxPercent changes the tax rate and recomputes the totals.
func (d *Draft) SetTaxPercent(pct float64) {
	d.TaxPercent = finite(pct)
	d.Recompute()
}

func renumber(lines []LineItem) []LineItem {
	for i := range lines {
		lines[i].RowNo = i + 1
	}
	return lines
}
