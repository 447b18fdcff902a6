package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Rooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signal_relay_rooms",
		Help: "Rooms currently held in the registry.",
	})

	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signal_relay_connections",
		Help: "Open websocket connections.",
	})

	Joins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_relay_joins_total",
		Help: "Join requests by result.",
	}, []string{"result"})

	Relayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_relay_relayed_total",
		Help: "Relayed negotiation events by event name.",
	}, []string{"event"})

	RoutingMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signal_relay_routing_misses_total",
		Help: "Addressed relays whose target was not in the room.",
	})

	DroppedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_relay_dropped_frames_total",
		Help: "Frames dropped before delivery, by reason.",
	}, []string{"reason"})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
