package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BusMetrics records connection and delivery metadata for the notification bus.
type BusMetrics struct {
	connected *prometheus.GaugeVec
	broadcast *prometheus.CounterVec
	dropped   *prometheus.CounterVec
}

// NewBusMetrics registers the bus metrics on the provided registerer.
func NewBusMetrics(reg prometheus.Registerer) *BusMetrics {
	if reg == nil {
		return &BusMetrics{}
	}
	connected := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bus_connected_clients",
		Help: "Currently connected websocket clients.",
	}, []string{"endpoint"})
	broadcast := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_events_broadcast_total",
		Help: "Events broadcast to connected clients.",
	}, []string{"event"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_deliveries_dropped_total",
		Help: "Per-client deliveries dropped due to a full send buffer.",
	}, []string{"event"})
	reg.MustRegister(connected, broadcast, dropped)
	return &BusMetrics{
		connected: connected,
		broadcast: broadcast,
		dropped:   dropped,
	}
}

// SetConnected records the current client count for the endpoint.
func (b *BusMetrics) SetConnected(endpoint string, count int) {
	if b == nil || b.connected == nil {
		return
	}
	b.connected.WithLabelValues(normalizeLabel(endpoint)).Set(float64(count))
}

// IncBroadcast increments the broadcast counter for the named event.
func (b *BusMetrics) IncBroadcast(event string) {
	if b == nil || b.broadcast == nil {
		return
	}
	b.broadcast.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncDropped increments the dropped-delivery counter for the named event.
func (b *BusMetrics) IncDropped(event string) {
	if b == nil || b.dropped == nil {
		return
	}
	b.dropped.WithLabelValues(normalizeLabel(event)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
