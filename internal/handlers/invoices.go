package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/invoice-web/auth"
	"github.com/diewo77/invoice-web/httpx"
	"github.com/diewo77/invoice-web/internal/apiclient"
	"github.com/diewo77/invoice-web/internal/invoice"
	"github.com/diewo77/invoice-web/internal/metrics"
	"github.com/diewo77/invoice-web/internal/pdf"
	"github.com/diewo77/invoice-web/validation"
	"github.com/sirupsen/logrus"
)

type InvoiceHandler struct {
	base
}

func NewInvoiceHandler(d *Deps) *InvoiceHandler {
	return &InvoiceHandler{base{d}}
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.API.ListInvoices(r.Context())
	if h.expired(w, r, err) {
		return
	}
	data := map[string]any{"Invoices": invoices}
	if err != nil {
		data["Error"] = apiclient.UserMessage(err, h.t(r, "load_failed"))
	}
	h.render(w, r, http.StatusOK, "invoices/index.html", data)
}

// editor renders the invoice form for d.
func (h *InvoiceHandler) editor(w http.ResponseWriter, r *http.Request, status int, d *invoice.Draft, extra map[string]any) {
	ctx := r.Context()
	company := h.companyID(ctx)
	items, err := h.Catalog.Items(ctx, company)
	if err != nil {
		h.Log.WithError(err).Debug("item list unavailable for editor")
	}
	data := map[string]any{
		"Draft":  d,
		"Items":  items,
		"Names":  h.Catalog.Names(ctx, company),
		"Errors": validation.Violations{},
	}
	for k, v := range extra {
		data[k] = v
	}
	h.render(w, r, status, "invoices/edit.html", data)
}

func (h *InvoiceHandler) New(w http.ResponseWriter, r *http.Request) {
	h.editor(w, r, http.StatusOK, invoice.NewDraft(), nil)
}

// load fetches the invoice named by the path and writes the failure page
// itself.
func (h *InvoiceHandler) load(w http.ResponseWriter, r *http.Request) (*invoice.Draft, bool) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return nil, false
	}
	d, err := h.API.LoadInvoice(r.Context(), id)
	if err == nil {
		return d, true
	}
	switch {
	case h.expired(w, r, err):
	case errors.Is(err, apiclient.ErrNotFound):
		h.notFound(w, r)
	case errors.Is(err, invoice.ErrMalformed):
		h.Log.WithField("invoiceID", id).WithError(err).Warn("remote invoice is not an object")
		h.render(w, r, http.StatusBadGateway, "invoices/index.html", map[string]any{"Error": h.t(r, "load_failed")})
	default:
		h.render(w, r, http.StatusBadGateway, "invoices/index.html", map[string]any{
			"Error": apiclient.UserMessage(err, h.t(r, "load_failed")),
		})
	}
	return nil, false
}

func (h *InvoiceHandler) Edit(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	h.editor(w, r, http.StatusOK, d, nil)
}

// Lines applies an add, remove or recalc action to the posted draft and
// shows the editor again without saving.
func (h *InvoiceHandler) Lines(w http.ResponseWriter, r *http.Request) {
	d, err := parseDraft(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	switch r.PathValue("action") {
	case "add":
		d.AddLine()
	case "remove":
		idx, convErr := strconv.Atoi(r.PostFormValue("index"))
		if convErr != nil {
			idx = -1
		}
		if err := d.RemoveLine(idx); err != nil {
			h.editor(w, r, http.StatusBadRequest, d, map[string]any{"Error": err.Error()})
			return
		}
	case "recalc":
		d.Recompute()
	default:
		h.notFound(w, r)
		return
	}
	h.editor(w, r, http.StatusOK, d, nil)
}

// Save validates and submits the posted draft. Only one save per session is
// in flight at a time; a second submit is answered with 409.
func (h *InvoiceHandler) Save(w http.ResponseWriter, r *http.Request) {
	d, err := parseDraft(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sid, _ := auth.SessionIDFromContext(r.Context())
	release, ok, err := h.Guard.Acquire(r.Context(), "invoice-save:"+sid)
	if err != nil {
		h.Log.WithError(err).Warn("save guard unavailable")
		ok, release = true, func() {}
	}
	if !ok {
		h.Metrics.ObserveSave(metrics.SaveDuplicate)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusConflict, "save_in_progress", nil)
			return
		}
		h.editor(w, r, http.StatusConflict, d, map[string]any{"Error": h.t(r, "save_in_progress"), "Saving": true})
		return
	}
	defer release()

	payload, err := d.SavePayload()
	if v, invalid := validation.AsViolations(err); invalid {
		h.Metrics.ObserveSave(metrics.SaveInvalid)
		msg := h.t(r, "invalid")
		if code, ok := v["customerName"]; ok {
			msg = h.t(r, code)
		}
		h.editor(w, r, http.StatusUnprocessableEntity, d, map[string]any{"Errors": v, "Error": msg})
		return
	}
	if err != nil {
		h.Metrics.ObserveSave(metrics.SaveFailed)
		h.Log.WithError(err).Error("build invoice payload")
		h.editor(w, r, http.StatusInternalServerError, d, map[string]any{"Error": h.t(r, "save_failed")})
		return
	}

	if err := h.API.SaveInvoice(r.Context(), payload); err != nil {
		h.Metrics.ObserveSave(metrics.SaveFailed)
		if h.expired(w, r, err) {
			return
		}
		h.Log.WithFields(logrus.Fields{"invoiceID": payload.InvoiceID}).WithError(err).Warn("invoice save failed")
		h.editor(w, r, http.StatusBadGateway, d, map[string]any{
			"Error": apiclient.UserMessage(err, h.t(r, "save_failed")),
		})
		return
	}
	h.Metrics.ObserveSave(metrics.SaveOK)
	http.Redirect(w, r, "/invoices", http.StatusSeeOther)
}

const maxTotalsBytes = 1 << 20

type totalsResponse struct {
	SubTotal      float64   `json:"subTotal"`
	TaxAmount     float64   `json:"taxAmount"`
	InvoiceAmount float64   `json:"invoiceAmount"`
	LineTotals    []float64 `json:"lineTotals"`
}

// Totals previews the totals of a draft posted as JSON or as the editor form.
func (h *InvoiceHandler) Totals(w http.ResponseWriter, r *http.Request) {
	d := invoice.NewDraft()
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTotalsBytes))
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		// numeric text and blanks are coerced the same way as a loaded invoice
		in, err := invoice.Load(raw)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		d.SetLines(in.Lines)
		d.SetTaxPercent(in.TaxPercent)
	} else {
		parsed, err := parseDraft(r)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
			return
		}
		d = parsed
	}

	t := invoice.Calculate(d.Lines, d.TaxPercent)
	out := totalsResponse{
		SubTotal:      t.SubTotal.InexactFloat64(),
		TaxAmount:     t.TaxAmount.InexactFloat64(),
		InvoiceAmount: t.InvoiceAmount.InexactFloat64(),
		LineTotals:    make([]float64, len(d.Lines)),
	}
	for i, ln := range d.Lines {
		out.LineTotals[i] = invoice.LineTotal(ln).InexactFloat64()
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *InvoiceHandler) Print(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	st := h.state(ctx)
	data := map[string]any{
		"Draft":   d,
		"Names":   h.Catalog.Names(ctx, h.companyID(ctx)),
		"User":    st.User,
		"Company": st.Company,
	}
	if st.Company != nil {
		if u, err := h.API.CompanyLogoURL(ctx, st.Company.CompanyID); err == nil {
			data["LogoURL"] = u
		}
	}
	h.render(w, r, http.StatusOK, "invoices/print.html", data)
}

func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var buf bytes.Buffer
	if err := pdf.Invoice(&buf, d, h.Catalog.Names(ctx, h.companyID(ctx)), h.state(ctx).Company); err != nil {
		h.Log.WithError(err).Error("render invoice pdf")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	name := "invoice"
	if d.InvoiceNo != "" {
		name += "-" + d.InvoiceNo
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, name))
	_, _ = buf.WriteTo(w)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.API.DeleteInvoice(r.Context(), id); err != nil {
		if h.expired(w, r, err) {
			return
		}
		invoices, _ := h.API.ListInvoices(r.Context())
		h.render(w, r, http.StatusBadGateway, "invoices/index.html", map[string]any{
			"Invoices": invoices,
			"Error":    apiclient.UserMessage(err, h.t(r, "save_failed")),
		})
		return
	}
	http.Redirect(w, r, "/invoices", http.StatusSeeOther)
}
