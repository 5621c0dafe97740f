package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"invoicectl"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "invoice.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestTotalsCommand(t *testing.T) {
	p := writeFile(t, `{"InvoiceNo":"7","TaxPercentage":"10","Lines":[{"Quantity":2,"Rate":10},{"quantity":1,"rate":5.555,"discountPct":10}]}`)
	out, err := run(t, "totals", p)
	require.NoError(t, err)
	assert.Contains(t, out, "Subtotal: 25.00")
	assert.Contains(t, out, "Tax (10%): 2.50")
	assert.Contains(t, out, "Total:    27.50")
}

func TestNormalizeCommand(t *testing.T) {
	p := writeFile(t, `{"CustomerName":"  Globex ","InvoiceDate":"2024-03-05T00:00:00","Lines":[{"ItemID":"5","Quantity":"x"}]}`)
	out, err := run(t, "normalize", p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Globex", got["customerName"])
	lines := got["lines"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, float64(0), lines[0].(map[string]any)["quantity"])
}

func TestNormalizeRejectsNonObject(t *testing.T) {
	p := writeFile(t, `[1,2]`)
	_, err := run(t, "normalize", p)
	assert.Error(t, err)
}

func TestRemoteCommandsNeedLogin(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state.db")
	_, err := run(t, "--state", state, "--api", "http://127.0.0.1:1", "invoices", "list")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestLoginThenListInvoices(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/Auth/Login":
			_, _ = io.WriteString(w, `{"token":"tok-9","user":{"userID":1,"firstName":"Ada","email":"ada@example.com"}}`)
		case "/api/Invoice/GetList":
			gotAuth = r.Header.Get("Authorization")
			_, _ = io.WriteString(w, `[{"invoiceID":4,"invoiceNo":12,"invoiceDate":"2024-03-05T00:00:00","customerName":"Globex","invoiceAmount":22}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	state := filepath.Join(t.TempDir(), "state.db")
	base := []string{"--state", state, "--api", srv.URL + "/api"}

	out, err := run(t, append(base, "login", "--email", "ada@example.com", "--password", "pw")...)
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as Ada")

	out, err = run(t, append(base, "invoices", "list")...)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-9", gotAuth)
	assert.Contains(t, out, "Globex")
	assert.Contains(t, out, "22.00")

	_, err = run(t, append(base, "logout")...)
	require.NoError(t, err)
	_, err = run(t, append(base, "invoices", "list")...)
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestEnvCloseReleasesStateDB(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state.db")
	app := newApp()
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}

	var pingErr error
	app.Action = func(c *cli.Context) error {
		e, err := openEnv(c)
		if err != nil {
			return err
		}
		sqlDB, err := e.db.DB()
		if err != nil {
			return err
		}
		e.close()
		pingErr = sqlDB.Ping()
		return nil
	}
	require.NoError(t, app.Run([]string{"invoicectl", "--state", state}))
	assert.Error(t, pingErr)
}
