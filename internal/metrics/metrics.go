package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes used as the status label
const (
	StatusSuccess          = "success"
	StatusInsufficientData = "insufficient_data"
	StatusFailed           = "failed"
)

// DefaultRoute is where the scrape endpoint is mounted when none is configured
const DefaultRoute = "/metrics"

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics for the scrape endpoint
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Backtest metrics
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	backtestsActive  prometheus.Gauge
	tradesTotal      *prometheus.CounterVec
	predictionsTotal *prometheus.CounterVec
	finalValue       *prometheus.GaugeVec
	tickersLoaded    prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantbench_http_requests_total",
				Help: "Total number of requests to the metrics endpoint",
			},
			[]string{"method", "route", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantbench_http_request_duration_seconds",
				Help:    "Metrics endpoint request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "quantbench_http_requests_in_flight",
				Help: "Number of metrics endpoint requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantbench_backtests_total",
			Help: "Total number of backtest runs by outcome",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quantbench_backtest_duration_seconds",
			Help:    "Backtest run duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)
	r.backtestsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quantbench_backtests_active",
			Help: "Number of backtests currently running",
		},
	)
	r.tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantbench_trades_total",
			Help: "Total number of simulated trades",
		},
		[]string{"action"},
	)
	r.predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantbench_predictions_total",
			Help: "Total number of predictor calls by returned label",
		},
		[]string{"label"},
	)
	r.finalValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quantbench_final_value",
			Help: "Final portfolio value of the latest run per ticker",
		},
		[]string{"ticker"},
	)
	r.tickersLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quantbench_tickers_loaded",
			Help: "Number of tickers in the current batch",
		},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.backtestsActive)
	reg.MustRegister(r.tradesTotal)
	reg.MustRegister(r.predictionsTotal)
	reg.MustRegister(r.finalValue)
	reg.MustRegister(r.tickersLoaded)

	return r
}

// Handler serves the registry in the Prometheus exposition format, recording
// its own requests under route.
func (r *Registry) Handler(route string) http.Handler {
	return Instrument(r, route, promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{}))
}

// RecordRequest records metrics for a request to route.
func (r *Registry) RecordRequest(method, route string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, route, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBacktest records a finished run.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// BacktestStarted marks a run as in progress. Call the returned func when it ends.
func (r *Registry) BacktestStarted() func() {
	r.backtestsActive.Inc()
	return r.backtestsActive.Dec
}

// RecordTrade counts a simulated trade.
func (r *Registry) RecordTrade(action string) {
	r.tradesTotal.WithLabelValues(action).Inc()
}

// RecordPrediction counts a predictor answer.
func (r *Registry) RecordPrediction(label int) {
	r.predictionsTotal.WithLabelValues(strconv.Itoa(label)).Inc()
}

// SetFinalValue sets the latest final portfolio value for a ticker.
func (r *Registry) SetFinalValue(ticker string, value float64) {
	r.finalValue.WithLabelValues(ticker).Set(value)
}

// SetTickers sets the number of tickers in the batch.
func (r *Registry) SetTickers(count int) {
	r.tickersLoaded.Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
