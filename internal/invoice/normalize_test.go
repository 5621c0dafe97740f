package invoice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const camelInvoice = `{
	"invoiceID": 12,
	"invoiceNo": "1001",
	"invoiceDate": "2025-03-01",
	"customerName": "  Acme Ltd ",
	"address": "1 Main St",
	"city": "Springfield",
	"taxPercentage": 10,
	"notes": "thanks",
	"lines": [
		{"rowNo": 1, "itemID": 3, "description": "Widget", "quantity": 2, "rate": 10, "discountPct": 0},
		{"itemID": null, "quantity": "1", "rate": 5, "discountPct": 50}
	],
	"subTotal": 22.5,
	"taxAmount": 2.25,
	"invoiceAmount": 24.75
}`

const pascalInvoice = `{
	"InvoiceID": 12,
	"InvoiceNo": "1001",
	"InvoiceDate": "2025-03-01",
	"CustomerName": "  Acme Ltd ",
	"Address": "1 Main St",
	"City": "Springfield",
	"TaxPercentage": 10,
	"Notes": "thanks",
	"Lines": [
		{"RowNo": 1, "ItemID": 3, "Description": "Widget", "Quantity": 2, "Rate": 10, "DiscountPct": 0},
		{"ItemID": null, "Quantity": "1", "Rate": 5, "DiscountPct": 50}
	],
	"SubTotal": 22.5,
	"TaxAmount": 2.25,
	"InvoiceAmount": 24.75
}`

func mustNormalize(t *testing.T, raw string) Payload {
	t.Helper()
	p, err := Normalize([]byte(raw))
	require.NoError(t, err)
	return p
}

func TestNormalize_Fields(t *testing.T) {
	p := mustNormalize(t, camelInvoice)

	assert.Equal(t, int64(12), p.InvoiceID)
	require.NotNil(t, p.InvoiceNo)
	assert.Equal(t, 1001.0, *p.InvoiceNo)
	require.NotNil(t, p.InvoiceDate)
	assert.Equal(t, "2025-03-01", *p.InvoiceDate)
	assert.Equal(t, "Acme Ltd", p.CustomerName)
	assert.Equal(t, "1 Main St", p.Address)
	assert.Equal(t, "Springfield", p.City)
	assert.Equal(t, 10.0, p.TaxPercent)
	assert.Equal(t, "thanks", p.Notes)
	assert.Equal(t, []PayloadLine{
		{RowNo: 1, ItemID: 3, Description: "Widget", Quantity: 2, Rate: 10},
		{RowNo: 2, ItemID: 0, Quantity: 1, Rate: 5, DiscountPct: 50},
	}, p.Lines)
	assert.Equal(t, 22.5, p.SubTotal)
	assert.Equal(t, 2.25, p.TaxAmount)
	assert.Equal(t, 24.75, p.InvoiceAmount)
}

func TestNormalize_CasingIsIrrelevant(t *testing.T) {
	assert.Equal(t, mustNormalize(t, camelInvoice), mustNormalize(t, pascalInvoice))
	assert.Equal(t,
		mustNormalize(t, `{"customerName":"A"}`),
		mustNormalize(t, `{"CustomerName":"A"}`))
}

func TestNormalize_Defaults(t *testing.T) {
	p := mustNormalize(t, `{}`)

	assert.Zero(t, p.InvoiceID)
	assert.Nil(t, p.InvoiceNo)
	assert.Nil(t, p.InvoiceDate)
	assert.Empty(t, p.CustomerName)
	assert.NotNil(t, p.Lines)
	assert.Empty(t, p.Lines)
	assert.Zero(t, p.TaxPercent)
	assert.Zero(t, p.InvoiceAmount)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"invoiceID": 0, "invoiceNo": null, "invoiceDate": null, "customerName": "",
		"address": "", "city": "", "taxPercentage": 0, "notes": "", "lines": [],
		"subTotal": 0, "taxAmount": 0, "invoiceAmount": 0
	}`, string(b))
}

func TestNormalize_Coercion(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, p Payload)
	}{
		{"blank invoice number is null", `{"invoiceNo":"  "}`, func(t *testing.T, p Payload) {
			assert.Nil(t, p.InvoiceNo)
		}},
		{"non-numeric invoice number degrades to 0", `{"invoiceNo":"INV-1"}`, func(t *testing.T, p Payload) {
			require.NotNil(t, p.InvoiceNo)
			assert.Zero(t, *p.InvoiceNo)
		}},
		{"empty date is null", `{"invoiceDate":""}`, func(t *testing.T, p Payload) {
			assert.Nil(t, p.InvoiceDate)
		}},
		{"timestamp date passes through", `{"invoiceDate":"2025-03-01T00:00:00"}`, func(t *testing.T, p Payload) {
			assert.Equal(t, "2025-03-01T00:00:00", *p.InvoiceDate)
		}},
		{"non-numeric tax is 0", `{"taxPercentage":"abc"}`, func(t *testing.T, p Payload) {
			assert.Zero(t, p.TaxPercent)
		}},
		{"NaN text is 0", `{"taxPercentage":"NaN","lines":[{"rate":"Infinity"}]}`, func(t *testing.T, p Payload) {
			assert.Zero(t, p.TaxPercent)
			assert.Zero(t, p.Lines[0].Rate)
		}},
		{"numeric strings are parsed", `{"lines":[{"quantity":" 2.5 ","rate":"4"}]}`, func(t *testing.T, p Payload) {
			assert.Equal(t, 2.5, p.Lines[0].Quantity)
			assert.Equal(t, 4.0, p.Lines[0].Rate)
		}},
		{"identity is truncated to an integer", `{"invoiceID":"7.9"}`, func(t *testing.T, p Payload) {
			assert.Equal(t, int64(7), p.InvoiceID)
		}},
		{"identity falls back to primary key", `{"primaryKeyID":44}`, func(t *testing.T, p Payload) {
			assert.Equal(t, int64(44), p.InvoiceID)
		}},
		{"null camel value falls back to pascal", `{"customerName":null,"CustomerName":"Bob"}`, func(t *testing.T, p Payload) {
			assert.Equal(t, "Bob", p.CustomerName)
		}},
		{"camel wins over pascal", `{"customerName":"Ann","CustomerName":"Bob"}`, func(t *testing.T, p Payload) {
			assert.Equal(t, "Ann", p.CustomerName)
		}},
		{"lines that are not an array are dropped", `{"lines":{"rowNo":1}}`, func(t *testing.T, p Payload) {
			assert.Empty(t, p.Lines)
		}},
		{"missing row numbers follow position", `{"lines":[{},{"rowNo":9},{}]}`, func(t *testing.T, p Payload) {
			assert.Equal(t, 1, p.Lines[0].RowNo)
			assert.Equal(t, 9, p.Lines[1].RowNo)
			assert.Equal(t, 3, p.Lines[2].RowNo)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, mustNormalize(t, tt.raw))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		camelInvoice,
		pascalInvoice,
		`{}`,
		`{"invoiceNo":"INV-1","taxPercentage":"x","lines":[{"quantity":"NaN"}]}`,
		`{"InvoiceDate":"2025-01-31T23:00:00Z","Lines":[{"Description":"a"},{"RowNo":4}]}`,
		`{"invoiceDate":"","invoiceNo":" "}`,
	}
	for _, raw := range inputs {
		once := mustNormalize(t, raw)
		b, err := json.Marshal(once)
		require.NoError(t, err)
		twice := mustNormalize(t, string(b))
		assert.Equal(t, once, twice, "input %s", raw)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	for _, raw := range []string{``, `not json`, `[1,2]`, `"text"`, `{"a":`} {
		_, err := Normalize([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformed, "input %q", raw)
	}
}
