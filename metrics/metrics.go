// Package metrics exposes the dashboard's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certdash/analytics"
	"certdash/dashboard"
)

const namespace = "certdash"

// Metrics holds every collector, registered on its own registry.
type Metrics struct {
	Registry *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	Navigations      *prometheus.CounterVec
	SessionsActive   prometheus.Gauge
	ChartsLive       prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		UpstreamRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Analytics API requests by endpoint and status code",
			},
			[]string{"endpoint", "code"},
		),
		UpstreamDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Analytics API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		Navigations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "navigations_total",
				Help:      "Completed navigations by view and outcome",
			},
			[]string{"view", "outcome"},
		),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Live browser sessions",
		}),
		ChartsLive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "charts_live",
			Help:      "Chart handles attached across all sessions",
		}),
	}
}

// Upstream is the analytics client observer. A status of 0 means no
// response arrived and is recorded as code "error".
func (m *Metrics) Upstream() analytics.Observer {
	return func(endpoint string, status int, elapsed time.Duration) {
		code := "error"
		if status != 0 {
			code = strconv.Itoa(status)
		}
		m.UpstreamRequests.WithLabelValues(endpoint, code).Inc()
		m.UpstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Observer adapts m to the session lifecycle hooks.
func (m *Metrics) Observer() dashboard.Observer { return observer{m} }

type observer struct{ m *Metrics }

func (o observer) NavigationDone(view, outcome string) {
	o.m.Navigations.WithLabelValues(view, outcome).Inc()
}

func (o observer) SessionsActive(n int)  { o.m.SessionsActive.Set(float64(n)) }
func (o observer) ChartsDelta(delta int) { o.m.ChartsLive.Add(float64(delta)) }
