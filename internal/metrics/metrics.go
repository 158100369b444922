package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for one application instance.
// Each instance owns its registry so several apps (tests) can coexist.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Registrations   *prometheus.CounterVec
	TicketsCreated  prometheus.Counter
	EventsPublished *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mechanic_shop_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mechanic_shop_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mechanic_shop_registrations_total",
			Help: "Accounts registered, by role",
		}, []string{"role"}),
		TicketsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "mechanic_shop_service_tickets_created_total",
			Help: "Service tickets opened by customers",
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mechanic_shop_ticket_events_published_total",
			Help: "Ticket events handed to the broker, by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) IncRegistration(role string) { m.Registrations.WithLabelValues(role).Inc() }

func (m *Metrics) IncTicketsCreated() { m.TicketsCreated.Inc() }

// IncEventPublished counts a publish attempt; outcome is "ok" or "error".
func (m *Metrics) IncEventPublished(outcome string) { m.EventsPublished.WithLabelValues(outcome).Inc() }

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
