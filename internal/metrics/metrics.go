package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quotes_processed_total", Help: "Count of quotes replayed through the simulation loop"},
		[]string{"instrument"},
	)
	FillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fills_total", Help: "Simulated fills applied to the ledger"},
		[]string{"instrument","side"},
	)
	UnfilledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "unfilled_orders_total", Help: "Intents dropped because the quote stream ended first"},
		[]string{"instrument"},
	)
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "runs_total", Help: "Backtest runs by terminal status"},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(QuotesTotal, FillsTotal, UnfilledTotal, RunsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{ Addr: addr, Handler: mux }
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
