package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/invoice-web/internal/apiclient"
	"github.com/diewo77/invoice-web/internal/invoice"
	"github.com/diewo77/invoice-web/validation"
)

type ItemHandler struct {
	base
}

func NewItemHandler(d *Deps) *ItemHandler {
	return &ItemHandler{base{d}}
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.API.ListItems(r.Context())
	if h.expired(w, r, err) {
		return
	}
	data := map[string]any{"Items": items}
	if err != nil {
		data["Error"] = apiclient.UserMessage(err, h.t(r, "load_failed"))
	}
	h.render(w, r, http.StatusOK, "items/index.html", data)
}

func (h *ItemHandler) New(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "items/form.html", map[string]any{
		"Item":   apiclient.Item{},
		"Errors": validation.Violations{},
	})
}

// load fetches the item named by the path and writes the failure page itself.
func (h *ItemHandler) load(w http.ResponseWriter, r *http.Request) (*apiclient.Item, bool) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return nil, false
	}
	it, err := h.API.GetItem(r.Context(), id)
	if err != nil {
		if h.expired(w, r, err) {
			return nil, false
		}
		if errors.Is(err, apiclient.ErrNotFound) {
			h.notFound(w, r)
			return nil, false
		}
		h.render(w, r, http.StatusBadGateway, "items/index.html", map[string]any{
			"Error": apiclient.UserMessage(err, h.t(r, "load_failed")),
		})
		return nil, false
	}
	return it, true
}

func (h *ItemHandler) View(w http.ResponseWriter, r *http.Request) {
	it, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "items/view.html", map[string]any{"Item": it})
}

func (h *ItemHandler) Edit(w http.ResponseWriter, r *http.Request) {
	it, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "items/form.html", map[string]any{
		"Item":   it,
		"Errors": validation.Violations{},
	})
}

// Save creates or updates depending on the hidden itemID.
func (h *ItemHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	id, _ := strconv.ParseInt(r.PostFormValue("itemID"), 10, 64)
	it := apiclient.Item{
		ItemID:      id,
		ItemName:    strings.TrimSpace(r.PostFormValue("itemName")),
		Description: r.PostFormValue("description"),
		SalesRate:   invoice.ParseNumber(r.PostFormValue("salesRate")),
		DiscountPct: invoice.ParseNumber(r.PostFormValue("discountPct")),
	}

	v := validation.Struct(it)
	validation.PositiveFloat("salesRate", it.SalesRate, v)
	validation.RangeFloat("discountPct", it.DiscountPct, 0, 100, v)
	if !v.Empty() {
		h.render(w, r, http.StatusUnprocessableEntity, "items/form.html", map[string]any{
			"Item":   it,
			"Errors": v,
		})
		return
	}

	if err := h.API.SaveItem(r.Context(), it); err != nil {
		if h.expired(w, r, err) {
			return
		}
		h.render(w, r, http.StatusBadGateway, "items/form.html", map[string]any{
			"Item":   it,
			"Errors": validation.Violations{},
			"Error":  apiclient.UserMessage(err, h.t(r, "save_failed")),
		})
		return
	}
	h.Catalog.Invalidate(r.Context(), h.companyID(r.Context()))
	http.Redirect(w, r, "/items", http.StatusSeeOther)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.API.DeleteItem(r.Context(), id); err != nil {
		if h.expired(w, r, err) {
			return
		}
		items, _ := h.API.ListItems(r.Context())
		h.render(w, r, http.StatusBadGateway, "items/index.html", map[string]any{
			"Items": items,
			"Error": apiclient.UserMessage(err, h.t(r, "save_failed")),
		})
		return
	}
	h.Catalog.Invalidate(r.Context(), h.companyID(r.Context()))
	http.Redirect(w, r, "/items", http.StatusSeeOther)
}
