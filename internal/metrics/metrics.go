package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "relay_polls_total", Help: "Poll cycles by result"},
		[]string{"result"},
	)
	MessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "relay_messages_total", Help: "New messages picked up"},
	)
	ForwardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "relay_forwards_total", Help: "Webhook deliveries by endpoint and result"},
		[]string{"endpoint", "result"},
	)
	SkipsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "relay_skips_total", Help: "Messages skipped for empty signal text"},
	)
)

func init() {
	prometheus.MustRegister(PollsTotal, MessagesTotal, ForwardsTotal, SkipsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
