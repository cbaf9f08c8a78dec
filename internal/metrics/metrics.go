package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rebalance_cycles_total", Help: "Rebalance cycles completed, by result"},
		[]string{"result"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
	OrderFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "order_failures_total", Help: "Order submissions rejected by the broker"},
		[]string{"symbol"},
	)
	TargetWeight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "target_weight", Help: "Most recent target weight per symbol"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, OrdersTotal, OrderFailuresTotal, TargetWeight)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
