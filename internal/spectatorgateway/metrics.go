package spectatorgateway

import "expvar"

var (
	metricSSEConnectionsTotal  = expvar.NewInt("spectator_sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("spectator_sse_connections_active")
	metricFeedEventsTotal      = expvar.NewInt("spectator_feed_events_total")
	metricFeedDroppedTotal     = expvar.NewInt("spectator_feed_dropped_total")
)
