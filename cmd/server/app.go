package main

import (
	"net/http"
	"time"

	"github.com/diewo77/invoice-web/httpx"
	"github.com/diewo77/invoice-web/i18n"
	"github.com/diewo77/invoice-web/internal/handlers"
	"github.com/diewo77/invoice-web/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const langCookie = "lang"

// App is the main application handler that sets up all routes.
type App struct {
	mux  *http.ServeMux
	deps *handlers.Deps
	reg  prometheus.Gatherer
}

// NewApp creates a new application with all routes configured.
func NewApp(deps *handlers.Deps, reg prometheus.Gatherer) *App {
	app := &App{
		mux:  http.NewServeMux(),
		deps: deps,
		reg:  reg,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// session id + language preference
	handler := a.deps.Sessions.Middleware(withPreferences(a.mux))
	handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	ah := handlers.NewAuthHandler(a.deps)
	ih := handlers.NewInvoiceHandler(a.deps)
	th := handlers.NewItemHandler(a.deps)

	// ─────────────────────────────────────────────────────────────────────────
	// Public routes
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /{$}", a.landingPage)
	a.mux.HandleFunc("GET /login", ah.Login)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("GET /signup", ah.Signup)
	a.mux.HandleFunc("POST /signup", ah.Signup)
	a.mux.HandleFunc("GET /logout", ah.Logout)
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if a.reg != nil {
		a.mux.Handle("GET /metrics", promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{}))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Invoices
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /invoices", a.requireAuth(ih.List))
	a.mux.Handle("GET /invoices/new", a.requireAuth(ih.New))
	a.mux.Handle("GET /invoices/{id}/edit", a.requireAuth(ih.Edit))
	a.mux.Handle("GET /invoices/{id}/print", a.requireAuth(ih.Print))
	a.mux.Handle("GET /invoices/{id}/pdf", a.requireAuth(ih.PDF))
	a.mux.Handle("POST /invoices/{id}/delete", a.requireAuth(ih.Delete))
	a.mux.Handle("POST /invoices/save", a.requireAuth(ih.Save))
	a.mux.Handle("POST /invoice-lines/{action}", a.requireAuth(ih.Lines))
	a.mux.Handle("POST /api/invoices/totals", a.requireAuth(ih.Totals))

	// ─────────────────────────────────────────────────────────────────────────
	// Items
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /items", a.requireAuth(th.List))
	a.mux.Handle("GET /items/new", a.requireAuth(th.New))
	a.mux.Handle("GET /items/{id}", a.requireAuth(th.View))
	a.mux.Handle("GET /items/{id}/edit", a.requireAuth(th.Edit))
	a.mux.Handle("POST /items/save", a.requireAuth(th.Save))
	a.mux.Handle("POST /items/{id}/delete", a.requireAuth(th.Delete))
}

// requireAuth wraps a handler to require a signed-in session.
func (a *App) requireAuth(h http.HandlerFunc) http.Handler {
	return a.deps.Sessions.RequireAuth(a.deps.Auth.SignedIn)(h)
}

func (a *App) landingPage(w http.ResponseWriter, r *http.Request) {
	if a.deps.Auth.SignedIn(r.Context()) {
		http.Redirect(w, r, "/invoices", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// withPreferences picks the UI language from ?lang=, the lang cookie or
// Accept-Language, in that order.
func withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		if c, err := r.Cookie(langCookie); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     langCookie,
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withLogging logs every request and counts it by status.
func withLogging(log logrus.FieldLogger, m *metrics.Collectors, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.ObserveHTTP(r.Method, rec.status)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}
