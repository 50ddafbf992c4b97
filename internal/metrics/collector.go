// Package metrics holds the Prometheus metric set the control loop and
// admin surface drive, grounded on the daemon's Collector pattern:
// vectors created up front, registered once against a Registerer, then
// driven through narrow Inc*/Set* methods.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "ripd"
	subsystem = "router"
)

const labelReason = "reason"
const labelRouteType = "type"

// routeTypeDirect and routeTypeLearned are the two label values Routes
// is split by: a direct entry has Nexthop 0 (on-link, installed from
// configured interfaces); a learned entry was installed from a RIP
// response.
const (
	routeTypeDirect  = "direct"
	routeTypeLearned = "learned"
)

// Collector holds every Prometheus metric this repository exposes.
type Collector struct {
	// Routes tracks the current size of the routing table, split by
	// direct vs. learned entries.
	Routes *prometheus.GaugeVec

	// PacketsReceived counts every inbound frame the control loop took
	// off the HAL, before validation.
	PacketsReceived prometheus.Counter

	// PacketsSent counts every frame successfully handed to HAL.Send.
	PacketsSent prometheus.Counter

	// PacketsDropped counts frames dropped, labeled by reason (e.g.
	// bad_checksum, short_frame, rip_malformed, no_route, ttl_exceeded,
	// arp_miss).
	PacketsDropped *prometheus.CounterVec

	// TriggeredUpdates counts triggered-update advertisements emitted.
	TriggeredUpdates prometheus.Counter

	// PeriodicUpdates counts periodic full-table advertisements emitted.
	PeriodicUpdates prometheus.Counter
}

// NewCollector builds a Collector and registers it against reg. If reg
// is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		Routes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "routes",
			Help:      "Current number of entries in the routing table, labeled by type (direct or learned).",
		}, []string{labelRouteType}),
		PacketsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_received_total",
			Help:      "Total inbound frames taken off the HAL.",
		}),
		PacketsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_sent_total",
			Help:      "Total frames successfully transmitted via the HAL.",
		}),
		PacketsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_dropped_total",
			Help:      "Total frames dropped, labeled by reason.",
		}, []string{labelReason}),
		TriggeredUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "triggered_updates_total",
			Help:      "Total triggered-update advertisements emitted.",
		}),
		PeriodicUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "periodic_updates_total",
			Help:      "Total periodic full-table advertisements emitted.",
		}),
	}

	reg.MustRegister(
		c.Routes,
		c.PacketsReceived,
		c.PacketsSent,
		c.PacketsDropped,
		c.TriggeredUpdates,
		c.PeriodicUpdates,
	)

	return c
}

func (c *Collector) IncReceived() { c.PacketsReceived.Inc() }
func (c *Collector) IncSent()     { c.PacketsSent.Inc() }
func (c *Collector) IncDropped(reason string) {
	c.PacketsDropped.WithLabelValues(reason).Inc()
}
func (c *Collector) IncTriggeredUpdates() { c.TriggeredUpdates.Inc() }
func (c *Collector) IncPeriodicUpdates()  { c.PeriodicUpdates.Inc() }

// SetRoutes sets the direct and learned route counts.
func (c *Collector) SetRoutes(direct, learned int) {
	c.Routes.WithLabelValues(routeTypeDirect).Set(float64(direct))
	c.Routes.WithLabelValues(routeTypeLearned).Set(float64(learned))
}
