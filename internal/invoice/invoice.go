// Package invoice holds the invoice editing model: line items, derived
// totals and the canonical payload exchanged with the remote API.
package invoice

import (
	"encoding/json"
	"strings"

	"github.com/diewo77/invoice-web/validation"
)

// LineItem is one billable row of an invoice.
type LineItem struct {
	RowNo       int     `json:"rowNo"`
	ItemID      *int64  `json:"itemID"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	DiscountPct float64 `json:"discountPct"`
}

// Audit is server-side metadata shown read-only in the editor and print view.
type Audit struct {
	CreatedBy string
	CreatedOn string
	UpdatedBy string
	UpdatedOn string
}

// Draft is the in-memory invoice owned by one editing session.
//
// SubTotal, TaxAmount and InvoiceAmount are derived from Lines and
// TaxPercent. Values loaded from the server are kept for display until the
// first edit; every mutator recomputes them.
type Draft struct {
	InvoiceID    *int64     `json:"invoiceID,omitempty"`
	InvoiceNo    string     `json:"invoiceNo"`
	InvoiceDate  string     `json:"invoiceDate"`
	CustomerName string     `json:"customerName"`
	Address      string     `json:"address"`
	City         string     `json:"city"`
	TaxPercent   float64    `json:"taxPercentage"`
	Notes        string     `json:"notes"`
	Lines        []LineItem `json:"lines"`

	SubTotal      float64 `json:"subTotal"`
	TaxAmount     float64 `json:"taxAmount"`
	InvoiceAmount float64 `json:"invoiceAmount"`

	Audit Audit `json:"-"`
}

// NewDraft returns an empty draft for a new invoice.
func NewDraft() *Draft {
	return &Draft{Lines: []LineItem{}}
}

// IsNew reports whether the draft has never been saved.
func (d *Draft) IsNew() bool {
	return d.InvoiceID == nil || *d.InvoiceID == 0
}

// Validate checks the fields that must be filled locally before a save
// is attempted.
func (d *Draft) Validate() validation.Violations {
	v := validation.Violations{}
	if strings.TrimSpace(d.CustomerName) == "" {
		v["customerName"] = "customer_required"
	}
	return v
}

// SavePayload validates the draft and builds the canonical outbound payload
// with freshly computed totals. The draft itself is not modified.
func (d *Draft) SavePayload() (Payload, error) {
	if err := d.Validate().Err(); err != nil {
		return Payload{}, err
	}
	snapshot := *d
	snapshot.Lines = append([]LineItem(nil), d.Lines...)
	snapshot.applyTotals(Calculate(snapshot.Lines, snapshot.TaxPercent))

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return Payload{}, err
	}
	return Normalize(raw)
}

// Payload is the canonical camelCase body sent to the remote API on save.
type Payload struct {
	InvoiceID     int64         `json:"invoiceID"`
	InvoiceNo     *float64      `json:"invoiceNo"`
	InvoiceDate   *string       `json:"invoiceDate"`
	CustomerName  string        `json:"customerName"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	TaxPercent    float64       `json:"taxPercentage"`
	Notes         string        `json:"notes"`
	Lines         []PayloadLine `json:"lines"`
	SubTotal      float64       `json:"subTotal"`
	TaxAmount     float64       `json:"taxAmount"`
	InvoiceAmount float64       `json:"invoiceAmount"`
}

// PayloadLine is one entry of Payload.Lines.
type PayloadLine struct {
	RowNo       int     `json:"rowNo"`
	ItemID      int64   `json:"itemID"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	DiscountPct float64 `json:"discountPct"`
}

// IsNew reports whether the payload targets the create endpoint.
func (p Payload) IsNew() bool { return p.InvoiceID == 0 }
