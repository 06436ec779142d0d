package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "portal",
		Name:      "active_connections",
		Help:      "Number of live websocket connections.",
	})

	EventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "events_dispatched_total",
		Help:      "Dispatch events published to rooms, by event name.",
	}, []string{"event"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "events_dropped_total",
		Help:      "Events dropped because a client send buffer was full.",
	})
)

// Handler exposes the prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
