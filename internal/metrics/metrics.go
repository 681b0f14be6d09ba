// ABOUTME: Prometheus metrics for auth and gate activity
// ABOUTME: All collectors are registered on a private registry per instance

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's collectors. A private registry keeps tests
// from tripping over duplicate registration.
type Metrics struct {
	registry *prometheus.Registry

	Logins      *prometheus.CounterVec
	Resolutions *prometheus.CounterVec
	GateDenials *prometheus.CounterVec
	Refreshes   *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_logins_total",
			Help: "Login attempts by result (success, invalid, unreachable).",
		}, []string{"result"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_resolutions_total",
			Help: "Credential resolutions by outcome (authenticated, anonymous, degraded).",
		}, []string{"outcome"}),
		GateDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_gate_denials_total",
			Help: "Requests turned away by the route guard, by reason.",
		}, []string{"reason"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_token_refreshes_total",
			Help: "Token refresh attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.Logins, m.Resolutions, m.GateDenials, m.Refreshes)
	return m
}

// Handler returns the scrape endpoint for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
