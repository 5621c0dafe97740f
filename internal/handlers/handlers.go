// Package handlers serves the browser front end on top of the remote API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/invoice-web/auth"
	"github.com/diewo77/invoice-web/httpx"
	"github.com/diewo77/invoice-web/i18n"
	"github.com/diewo77/invoice-web/internal/apiclient"
	"github.com/diewo77/invoice-web/internal/catalog"
	"github.com/diewo77/invoice-web/internal/config"
	"github.com/diewo77/invoice-web/internal/metrics"
	"github.com/diewo77/invoice-web/internal/session"
	"github.com/diewo77/invoice-web/view"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators shared by all handlers.
type Deps struct {
	API      *apiclient.Client
	Sessions *auth.Sessions
	Auth     *session.Manager
	Catalog  *catalog.Catalog
	Guard    session.Guard
	View     *view.Renderer
	Metrics  *metrics.Collectors
	Log      logrus.FieldLogger
}

type base struct {
	*Deps
}

func (b base) state(ctx context.Context) session.AuthState {
	st, _ := b.Auth.Current(ctx)
	return st
}

func (b base) companyID(ctx context.Context) int64 {
	if c := b.state(ctx).Company; c != nil {
		return c.CompanyID
	}
	return 0
}

// render adds the signed-in user to data and writes the page. A template
// failure becomes a plain 500.
func (b base) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["User"]; !ok {
		st := b.state(r.Context())
		data["User"] = st.User
		data["Company"] = st.Company
	}
	if err := b.View.Render(w, r, status, name, data); err != nil {
		config.LogError(b.Log, "handlers", "render", name, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (b base) t(r *http.Request, code string) string {
	return i18n.T(i18n.LangFromContext(r.Context()), code)
}

// notFound renders the error page with a 404.
func (b base) notFound(w http.ResponseWriter, r *http.Request) {
	b.render(w, r, http.StatusNotFound, "error.html", map[string]any{"Status": b.t(r, "not_found")})
}

// expired handles a remote 401: the token is already dropped from the
// store, so the cookie goes too and the user is sent back to sign in.
func (b base) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		return false
	}
	b.Sessions.Clear(w)
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return true
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}
