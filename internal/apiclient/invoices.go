package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/diewo77/invoice-web/internal/invoice"
	"github.com/tidwall/gjson"
)

// InvoiceSummary is one row of the invoice list.
type InvoiceSummary struct {
	InvoiceID     int64   `json:"invoiceID"`
	InvoiceNo     string  `json:"invoiceNo"`
	InvoiceDate   string  `json:"invoiceDate"`
	CustomerName  string  `json:"customerName"`
	InvoiceAmount float64 `json:"invoiceAmount"`
	Status        string  `json:"status,omitempty"`
}

// ListInvoices returns the invoice list. The number falls back to the id,
// the amount to the subtotal, and the date is cut to YYYY-MM-DD.
func (c *Client) ListInvoices(ctx context.Context) ([]InvoiceSummary, error) {
	body, err := c.do(ctx, request{op: "invoice.list", method: http.MethodGet, path: "/Invoice/GetList"})
	if err != nil {
		return nil, err
	}
	out := []InvoiceSummary{}
	arr := gjson.ParseBytes(body)
	if !arr.IsArray() {
		return out, nil
	}
	for _, v := range arr.Array() {
		s := InvoiceSummary{
			InvoiceID:    v.Get("invoiceID").Int(),
			InvoiceNo:    v.Get("invoiceNo").String(),
			InvoiceDate:  invoice.DateOnly(v.Get("invoiceDate").String()),
			CustomerName: v.Get("customerName").String(),
			Status:       v.Get("status").String(),
		}
		if s.InvoiceNo == "" {
			s.InvoiceNo = strconv.FormatInt(s.InvoiceID, 10)
		}
		switch {
		case v.Get("invoiceAmount").Type == gjson.Number:
			s.InvoiceAmount = v.Get("invoiceAmount").Float()
		case v.Get("subTotal").Type == gjson.Number:
			s.InvoiceAmount = v.Get("subTotal").Float()
		}
		out = append(out, s)
	}
	return out, nil
}

// GetInvoice returns the raw invoice document as sent by the API.
func (c *Client) GetInvoice(ctx context.Context, id int64) ([]byte, error) {
	return c.do(ctx, request{op: "invoice.get", method: http.MethodGet, path: "/Invoice/GetByID/" + strconv.FormatInt(id, 10)})
}

// LoadInvoice fetches an invoice and turns it into an editable draft.
func (c *Client) LoadInvoice(ctx context.Context, id int64) (*invoice.Draft, error) {
	raw, err := c.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return invoice.Load(raw)
}

// SaveInvoice creates or updates an invoice from its canonical payload.
// The call is not retried; on failure the caller keeps its draft.
func (c *Client) SaveInvoice(ctx context.Context, p invoice.Payload) error {
	if p.IsNew() {
		return c.doJSON(ctx, "invoice.create", http.MethodPost, "/Invoice/Create", p, nil)
	}
	return c.doJSON(ctx, "invoice.update", http.MethodPut, "/Invoice/Update", p, nil)
}

// DeleteInvoice removes an invoice.
func (c *Client) DeleteInvoice(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "invoice.delete", http.MethodDelete, "/Invoice/Delete/"+strconv.FormatInt(id, 10), nil, nil)
}
