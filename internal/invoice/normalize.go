package invoice

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformed is returned when a payload is not a JSON object.
var ErrMalformed = errors.New("invoice: malformed payload")

// key lists the spellings a payload field may arrive under, in lookup order.
type key []string

var (
	keyInvoiceID     = key{"invoiceID", "InvoiceID", "primaryKeyID", "PrimaryKeyID"}
	keyInvoiceNo     = key{"invoiceNo", "InvoiceNo"}
	keyInvoiceDate   = key{"invoiceDate", "InvoiceDate"}
	keyCustomerName  = key{"customerName", "CustomerName"}
	keyAddress       = key{"address", "Address"}
	keyCity          = key{"city", "City"}
	keyTaxPercent    = key{"taxPercentage", "TaxPercentage"}
	keyNotes         = key{"notes", "Notes"}
	keyLines         = key{"lines", "Lines"}
	keySubTotal      = key{"subTotal", "SubTotal"}
	keyTaxAmount     = key{"taxAmount", "TaxAmount"}
	keyInvoiceAmount = key{"invoiceAmount", "InvoiceAmount"}

	keyRowNo       = key{"rowNo", "RowNo"}
	keyItemID      = key{"itemID", "ItemID"}
	keyDescription = key{"description", "Description"}
	keyQuantity    = key{"quantity", "Quantity"}
	keyRate        = key{"rate", "Rate"}
	keyDiscountPct = key{"discountPct", "DiscountPct"}

	keyCreatedBy = key{"createdByUserName", "CreatedByUserName"}
	keyCreatedOn = key{"createdOn", "CreatedOn"}
	keyUpdatedBy = key{"updatedByUserName", "UpdatedByUserName"}
	keyUpdatedOn = key{"updatedOn", "UpdatedOn"}
)

// in returns the first spelling present on obj with a non-null value.
func (k key) in(obj gjson.Result) (gjson.Result, bool) {
	for _, name := range k {
		v := obj.Get(name)
		if v.Exists() && v.Type != gjson.Null {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func (k key) number(obj gjson.Result) float64 {
	v, _ := k.in(obj)
	return number(v)
}

func (k key) text(obj gjson.Result) string {
	v, _ := k.in(obj)
	return text(v)
}

// Normalize reshapes a loosely typed invoice object, in camelCase or
// PascalCase, into the canonical Payload. Missing fields take their
// defaults and non-numeric values degrade to 0; only input that is not a
// JSON object is rejected. Normalize is idempotent over its own JSON output.
func Normalize(raw []byte) (Payload, error) {
	if !gjson.ValidBytes(raw) {
		return Payload{}, ErrMalformed
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return Payload{}, ErrMalformed
	}

	p := Payload{
		CustomerName:  strings.TrimSpace(keyCustomerName.text(obj)),
		Address:       keyAddress.text(obj),
		City:          keyCity.text(obj),
		TaxPercent:    keyTaxPercent.number(obj),
		Notes:         keyNotes.text(obj),
		SubTotal:      keySubTotal.number(obj),
		TaxAmount:     keyTaxAmount.number(obj),
		InvoiceAmount: keyInvoiceAmount.number(obj),
		Lines:         normalizeLines(obj),
	}
	if v, ok := keyInvoiceID.in(obj); ok {
		p.InvoiceID = integer(v)
	}
	if v, ok := keyInvoiceNo.in(obj); ok && strings.TrimSpace(text(v)) != "" {
		n := number(v)
		p.InvoiceNo = &n
	}
	if v, ok := keyInvoiceDate.in(obj); ok && text(v) != "" {
		s := text(v)
		p.InvoiceDate = &s
	}
	return p, nil
}

func normalizeLines(obj gjson.Result) []PayloadLine {
	out := []PayloadLine{}
	v, ok := keyLines.in(obj)
	if !ok || !v.IsArray() {
		return out
	}
	for i, ln := range v.Array() {
		pl := PayloadLine{
			RowNo:       i + 1,
			Description: keyDescription.text(ln),
			Quantity:    keyQuantity.number(ln),
			Rate:        keyRate.number(ln),
			DiscountPct: keyDiscountPct.number(ln),
		}
		if rn, ok := keyRowNo.in(ln); ok {
			pl.RowNo = int(integer(rn))
		}
		if id, ok := keyItemID.in(ln); ok {
			pl.ItemID = integer(id)
		}
		out = append(out, pl)
	}
	return out
}
