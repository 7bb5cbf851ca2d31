package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScanPassesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "alphascan_scan_passes_total", Help: "Completed scan passes"},
	)
	CandleFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "alphascan_candle_fetches_total", Help: "Candle fetches by timeframe and result"},
		[]string{"timeframe", "result"},
	)
	EndpointFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "alphascan_endpoint_failures_total", Help: "Failed attempts per market data endpoint"},
		[]string{"endpoint"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "alphascan_signals_total", Help: "Signals by timeframe, type and outcome"},
		[]string{"timeframe", "type", "outcome"},
	)
	DeliveryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "alphascan_delivery_errors_total", Help: "Failed signal deliveries by sink"},
		[]string{"sink"},
	)
)

const (
	ResultOK    = "ok"
	ResultError = "error"

	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
	OutcomeDebounced = "debounced"
)

func init() {
	prometheus.MustRegister(ScanPassesTotal, CandleFetchesTotal, EndpointFailuresTotal, SignalsTotal, DeliveryErrorsTotal)
}

// Handler отдает метрики в формате Prometheus
func Handler() http.Handler {
	return promhttp.Handler()
}
