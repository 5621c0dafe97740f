// Package pdf renders an invoice as an A4 PDF document.
package pdf

import (
	"fmt"
	"io"

	"github.com/diewo77/invoice-web/internal/apiclient"
	"github.com/diewo77/invoice-web/internal/invoice"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// column widths in mm; they add up to the 190mm printable width
var cols = []struct {
	title string
	width float64
	align string
}{
	{"#", 10, "L"},
	{"Description", 80, "L"},
	{"Qty", 20, "R"},
	{"Rate", 25, "R"},
	{"Disc %", 20, "R"},
	{"Total", 35, "R"},
}

func money(cur string, d decimal.Decimal) string { return cur + d.StringFixed(2) }

// Invoice writes d to w. company may be nil.
func Invoice(w io.Writer, d *invoice.Draft, names invoice.NameLookup, company *apiclient.Company) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(d.Title(), true)
	pdf.AddPage()

	cur := ""
	if company != nil {
		cur = company.CurrencySymbol
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 7, tr(company.CompanyName), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(d.Title()), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if d.InvoiceDate != "" {
		pdf.CellFormat(0, 6, "Date: "+d.InvoiceDate, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, s := range []string{d.CustomerName, d.Address, d.City} {
		if s != "" {
			pdf.CellFormat(0, 5, tr(s), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range cols {
		pdf.CellFormat(c.width, 7, c.title, "B", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, ln := range d.Lines {
		cells := []string{
			fmt.Sprint(ln.RowNo),
			tr(invoice.Describe(ln, names)),
			invoice.FormatNumber(ln.Quantity),
			money(cur, decimal.NewFromFloat(ln.Rate).Round(2)),
			invoice.FormatNumber(ln.DiscountPct),
			money(cur, invoice.LineTotal(ln)),
		}
		for i, c := range cols {
			pdf.CellFormat(c.width, 6, cells[i], "B", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	rows := []struct {
		label string
		value decimal.Decimal
		bold  bool
	}{
		{"Subtotal", decimal.NewFromFloat(d.SubTotal), false},
		{fmt.Sprintf("Tax (%s%%)", invoice.FormatNumber(d.TaxPercent)), decimal.NewFromFloat(d.TaxAmount), false},
		{"Total", decimal.NewFromFloat(d.InvoiceAmount), true},
	}
	for _, r := range rows {
		style := ""
		if r.bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(155, 6, r.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, money(cur, r.value), "", 1, "R", false, 0, "")
	}

	if d.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, tr(d.Notes), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: render invoice: %w", err)
	}
	return nil
}
