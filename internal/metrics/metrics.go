// Package metrics exposes the Prometheus collectors shared by the API
// client and the HTTP front end.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups the application metrics. A nil *Collectors is valid and
// records nothing.
type Collectors struct {
	apiRequests  *prometheus.CounterVec
	apiDuration  *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	saves        *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoice_web",
			Name:      "api_requests_total",
			Help:      "Requests sent to the remote invoicing API.",
		}, []string{"op", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "invoice_web",
			Name:      "api_request_duration_seconds",
			Help:      "Latency of remote invoicing API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoice_web",
			Name:      "http_requests_total",
			Help:      "Requests served by the front end.",
		}, []string{"method", "status"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoice_web",
			Name:      "invoice_saves_total",
			Help:      "Invoice save attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(c.apiRequests, c.apiDuration, c.httpRequests, c.saves)
	return c
}

// ObserveAPI records one remote call. status is 0 for transport errors.
func (c *Collectors) ObserveAPI(op string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.apiRequests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	c.apiDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (c *Collectors) ObserveHTTP(method string, status int) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Save outcomes.
const (
	SaveOK        = "ok"
	SaveInvalid   = "invalid"
	SaveFailed    = "failed"
	SaveDuplicate = "duplicate"
)

// ObserveSave records the outcome of an invoice save attempt.
func (c *Collectors) ObserveSave(outcome string) {
	if c == nil {
		return
	}
	c.saves.WithLabelValues(outcome).Inc()
}
