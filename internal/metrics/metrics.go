package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of market ticks ingested"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Signals emitted by the generator"},
		[]string{"symbol", "side"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_total", Help: "Trades applied to the paper ledger"},
		[]string{"symbol", "side"},
	)
	TradeRejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trade_rejects_total", Help: "Signals rejected by the execution engine"},
		[]string{"reason"},
	)
	FeedReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feed_reconnects_total", Help: "Feed reconnect attempts"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, SignalsTotal, TradesTotal, TradeRejectsTotal, FeedReconnectsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
