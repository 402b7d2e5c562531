// Package metrics holds the Prometheus collectors for the signup protocol and
// the HTTP surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultError    = "error"
	ResultConflict = "conflict"
)

// Metrics is the set of collectors registered for one process. A nil
// *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	OTPIssued           *prometheus.CounterVec
	OTPVerifications    *prometheus.CounterVec
	OTPSwept            prometheus.Counter
	AccountsProvisioned *prometheus.CounterVec
	Compensations       *prometheus.CounterVec

	HTTPInFlight        prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers every collector on reg. reg is also used to serve /metrics.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		OTPIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_issued_total",
			Help: "One-time codes issued, by result.",
		}, []string{"result"}),
		OTPVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_verifications_total",
			Help: "One-time code verifications, by result.",
		}, []string{"result"}),
		OTPSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otp_swept_total",
			Help: "Expired one-time codes deleted by the sweep.",
		}),
		AccountsProvisioned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_provisioned_total",
			Help: "Account provisioning attempts, by result.",
		}, []string{"result"}),
		Compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provisioning_compensations_total",
			Help: "Compensating actions run after a failed provisioning step, by result.",
		}, []string{"result"}),
		HTTPInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.OTPIssued, m.OTPVerifications, m.OTPSwept,
		m.AccountsProvisioned, m.Compensations,
		m.HTTPInFlight, m.HTTPRequestsTotal, m.HTTPRequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) IncOTPIssued(result string) {
	if m != nil {
		m.OTPIssued.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncOTPVerification(result string) {
	if m != nil {
		m.OTPVerifications.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) AddOTPSwept(n int64) {
	if m != nil && n > 0 {
		m.OTPSwept.Add(float64(n))
	}
}

func (m *Metrics) IncAccountProvisioned(result string) {
	if m != nil {
		m.AccountsProvisioned.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncCompensation(result string) {
	if m != nil {
		m.Compensations.WithLabelValues(result).Inc()
	}
}
