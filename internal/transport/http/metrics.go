package httptransport

import "expvar"

var (
	metricJoinRequests    = expvar.NewInt("http_join_requests_total")
	metricJoinRejected    = expvar.NewInt("http_join_rejected_total")
	metricLeaveRequests   = expvar.NewInt("http_leave_requests_total")
	metricMapRequests     = expvar.NewInt("http_map_requests_total")
	metricDamageRequests  = expvar.NewInt("http_damage_requests_total")
	metricDamageCancelled = expvar.NewInt("http_damage_cancelled_total")
	metricCommandErrors   = expvar.NewInt("http_command_errors_total")
	metricHistoryQueries  = expvar.NewInt("http_history_queries_total")
)
