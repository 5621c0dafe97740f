package invoice

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func requireDenseRows(t *testing.T, d *Draft) {
	t.Helper()
	for i, ln := range d.Lines {
		require.Equal(t, i+1, ln.RowNo, "row at index %d", i)
	}
}

func TestDraft_AddLine(t *testing.T) {
	d := NewDraft()

	first := d.AddLine()
	second := d.AddLine()

	assert.Equal(t, LineItem{RowNo: 1, Quantity: 1}, first)
	assert.Equal(t, 2, second.RowNo)
	assert.Nil(t, second.ItemID)
	require.Len(t, d.Lines, 2)
	assert.Zero(t, d.InvoiceAmount)
}

func TestDraft_UpdateLine(t *testing.T) {
	d := NewDraft()
	d.AddLine()
	d.SetTaxPercent(10)

	err := d.UpdateLine(0, LinePatch{
		ItemID:      ptr(int64(7)),
		Description: ptr("Consulting"),
		Quantity:    ptr(2.0),
		Rate:        ptr(10.0),
	})
	require.NoError(t, err)

	ln := d.Lines[0]
	assert.Equal(t, 1, ln.RowNo)
	assert.Equal(t, int64(7), *ln.ItemID)
	assert.Equal(t, "Consulting", ln.Description)
	assert.Zero(t, ln.DiscountPct)
	assert.Equal(t, 20.0, d.SubTotal)
	assert.Equal(t, 2.0, d.TaxAmount)
	assert.Equal(t, 22.0, d.InvoiceAmount)

	require.NoError(t, d.UpdateLine(0, LinePatch{ClearItem: true, ItemID: ptr(int64(9))}))
	assert.Nil(t, d.Lines[0].ItemID)
}

func TestDraft_UpdateLine_CoercesNonFinite(t *testing.T) {
	d := NewDraft()
	d.AddLine()

	require.NoError(t, d.UpdateLine(0, LinePatch{Quantity: ptr(math.NaN()), Rate: ptr(math.Inf(1))}))

	assert.Zero(t, d.Lines[0].Quantity)
	assert.Zero(t, d.Lines[0].Rate)
	assert.Zero(t, d.InvoiceAmount)
}

func TestDraft_RemoveLine(t *testing.T) {
	d := NewDraft()
	for _, desc := range []string{"a", "b", "c", "d"} {
		d.AddLine()
		require.NoError(t, d.UpdateLine(len(d.Lines)-1, LinePatch{Description: ptr(desc), Rate: ptr(1.0)}))
	}

	require.NoError(t, d.RemoveLine(1))

	requireDenseRows(t, d)
	var got []string
	for _, ln := range d.Lines {
		got = append(got, ln.Description)
	}
	assert.Equal(t, []string{"a", "c", "d"}, got)
	assert.Equal(t, 3.0, d.SubTotal)

	require.NoError(t, d.RemoveLine(2))
	require.NoError(t, d.RemoveLine(0))
	requireDenseRows(t, d)
	assert.Equal(t, "c", d.Lines[0].Description)
}

func TestDraft_LineIndexOutOfRange(t *testing.T) {
	d := NewDraft()
	d.AddLine()

	assert.ErrorIs(t, d.UpdateLine(1, LinePatch{}), ErrLineIndex)
	assert.ErrorIs(t, d.UpdateLine(-1, LinePatch{}), ErrLineIndex)
	assert.ErrorIs(t, d.RemoveLine(3), ErrLineIndex)
	assert.Len(t, d.Lines, 1)
}

func TestDraft_RowsStayDense(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	d := NewDraft()

	for step := 0; step < 1000; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(d.Lines) == 0:
			d.AddLine()
		case op == 1:
			i := rng.Intn(len(d.Lines))
			require.NoError(t, d.UpdateLine(i, LinePatch{Quantity: ptr(float64(rng.Intn(5)))}))
		default:
			require.NoError(t, d.RemoveLine(rng.Intn(len(d.Lines))))
		}
		requireDenseRows(t, d)
	}
}

func TestDraft_SetLines(t *testing.T) {
	d := NewDraft()
	d.SetTaxPercent(20)

	d.SetLines([]LineItem{
		{RowNo: 5, Quantity: 1, Rate: 10},
		{RowNo: 5, Quantity: math.NaN(), Rate: 3},
	})

	requireDenseRows(t, d)
	assert.Zero(t, d.Lines[1].Quantity)
	assert.Equal(t, 12.0, d.InvoiceAmount)
}
