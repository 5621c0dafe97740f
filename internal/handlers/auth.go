package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/invoice-web/auth"
	"github.com/diewo77/invoice-web/internal/apiclient"
	"github.com/diewo77/invoice-web/internal/config"
	"github.com/diewo77/invoice-web/internal/session"
	"github.com/diewo77/invoice-web/validation"
	"github.com/sirupsen/logrus"
)

const maxSignupBytes = 8 << 20

type AuthHandler struct {
	base
}

func NewAuthHandler(d *Deps) *AuthHandler {
	return &AuthHandler{base{d}}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if h.Auth.SignedIn(r.Context()) {
			http.Redirect(w, r, "/invoices", http.StatusSeeOther)
			return
		}
		h.render(w, r, http.StatusOK, "auth/login.html", map[string]any{"Errors": validation.Violations{}})
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	remember := r.FormValue("rememberMe") != ""

	v := make(validation.Violations)
	validation.Required("email", email, v)
	validation.Required("password", password, v)
	if !v.Empty() {
		h.render(w, r, http.StatusUnprocessableEntity, "auth/login.html", map[string]any{
			"Email": email, "RememberMe": remember, "Errors": v,
		})
		return
	}

	res, err := h.API.Login(r.Context(), email, password, remember)
	if err != nil {
		h.Log.WithFields(logrus.Fields{"email": email}).WithError(err).Info("login rejected")
		h.render(w, r, http.StatusUnauthorized, "auth/login.html", map[string]any{
			"Email":      email,
			"RememberMe": remember,
			"Errors":     validation.Violations{},
			"Error":      apiclient.UserMessage(err, h.t(r, "login_failed")),
		})
		return
	}
	if err := h.signIn(w, r, res); err != nil {
		config.LogError(h.Log, "handlers", "Login", email, err)
		h.render(w, r, http.StatusInternalServerError, "auth/login.html", map[string]any{
			"Email": email, "Errors": validation.Violations{}, "Error": h.t(r, "login_failed"),
		})
		return
	}
	http.Redirect(w, r, "/invoices", http.StatusSeeOther)
}

// signIn starts a fresh session for an auth result.
func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, res *apiclient.AuthResult) error {
	if old, ok := auth.SessionIDFromContext(r.Context()); ok {
		_ = h.Auth.Clear(r.Context(), old)
	}
	sid := h.Sessions.Create(w)
	return h.Auth.Save(r.Context(), sid, session.AuthState{
		Token:   res.Token,
		User:    res.User,
		Company: res.Company,
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "auth/signup.html", map[string]any{
			"Form":   apiclient.Signup{},
			"Errors": validation.Violations{},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSignupBytes)
	if err := r.ParseMultipartForm(maxSignupBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := apiclient.Signup{
		FirstName:      strings.TrimSpace(r.FormValue("firstName")),
		LastName:       strings.TrimSpace(r.FormValue("lastName")),
		Email:          strings.TrimSpace(r.FormValue("email")),
		Password:       r.FormValue("password"),
		CompanyName:    strings.TrimSpace(r.FormValue("companyName")),
		Address:        r.FormValue("address"),
		City:           r.FormValue("city"),
		ZipCode:        r.FormValue("zipCode"),
		Industry:       r.FormValue("industry"),
		CurrencySymbol: strings.TrimSpace(r.FormValue("currencySymbol")),
	}

	if v := validation.Struct(form); !v.Empty() {
		h.render(w, r, http.StatusUnprocessableEntity, "auth/signup.html", map[string]any{
			"Form": form, "Errors": v,
		})
		return
	}

	if f, hdr, err := r.FormFile("logo"); err == nil {
		defer f.Close()
		form.Logo = f
		form.LogoName = hdr.Filename
	}

	res, err := h.API.Signup(r.Context(), form)
	if err != nil {
		h.render(w, r, http.StatusBadGateway, "auth/signup.html", map[string]any{
			"Form":   form,
			"Errors": validation.Violations{},
			"Error":  apiclient.UserMessage(err, h.t(r, "signup_failed")),
		})
		return
	}
	if res.Token == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := h.signIn(w, r, res); err != nil {
		config.LogError(h.Log, "handlers", "Signup", form.Email, err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/invoices", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid, ok := auth.SessionIDFromContext(r.Context()); ok {
		if err := h.Auth.Clear(r.Context(), sid); err != nil {
			config.LogError(h.Log, "handlers", "Logout", nil, err)
		}
	}
	h.Sessions.Clear(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
