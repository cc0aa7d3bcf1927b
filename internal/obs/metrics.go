package obs

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics groups Prometheus collectors for HTTP observability.
type HTTPMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTPMetrics registers and returns HTTP metrics collectors.
func NewHTTPMetrics(namespace string, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &HTTPMetrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
	}
	mustRegisterCollector(reg, m.ReqTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.ReqTotal = v
		}
	})
	mustRegisterCollector(reg, m.ReqDur, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.HistogramVec); ok {
			m.ReqDur = v
		}
	})
	mustRegisterCollector(reg, m.InFlight, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Gauge); ok {
			m.InFlight = v
		}
	})
	return m
}

// Observe records one finished request.
func (m *HTTPMetrics) Observe(method, route string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	m.ReqTotal.WithLabelValues(method, route, code).Inc()
	m.ReqDur.WithLabelValues(method, route, code).Observe(d.Seconds())
}

// Handler serves the metrics of gatherer (the default registry when nil).
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	domainOnce sync.Once

	// QuotesSavedTotal counts successful quote writes by operation
	// (create, update, items, financials, status, duplicate, delete).
	QuotesSavedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotes_saved_total",
		Help: "Count of persisted quote changes by operation.",
	}, []string{"op"})
	// QuotePDFRenderedTotal counts PDF renders by result (ok, error).
	QuotePDFRenderedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_pdf_rendered_total",
		Help: "Count of quote PDF renders by outcome.",
	}, []string{"result"})
	// QuoteExportsTotal counts spreadsheet exports.
	QuoteExportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quote_exports_total",
		Help: "Count of quote list exports.",
	})
)

// MustRegisterDomainMetrics registers the quote collectors once. Until
// then they count without being exported.
func MustRegisterDomainMetrics(reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		mustRegisterCollector(reg, QuotesSavedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuotesSavedTotal = v
			}
		})
		mustRegisterCollector(reg, QuotePDFRenderedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuotePDFRenderedTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteExportsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				QuoteExportsTotal = v
			}
		})
	})
}

// QuoteSaved increments quotes_saved_total for op.
func QuoteSaved(op string) { QuotesSavedTotal.WithLabelValues(op).Inc() }

// PDFRendered increments quote_pdf_rendered_total with ok or error.
func PDFRendered(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	QuotePDFRenderedTotal.WithLabelValues(result).Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
