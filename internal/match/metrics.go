package match

import "expvar"

var (
	metricArenasActive      = expvar.NewInt("arenas_active")
	metricArenasQuarantined = expvar.NewInt("arenas_quarantined_total")
	metricArenaUpdateErrors = expvar.NewInt("arena_update_errors_total")
	metricGameOverTotal     = expvar.NewInt("game_over_total")

	metricSessionsActive = expvar.NewInt("sessions_active")
	metricJoinTotal      = expvar.NewInt("join_total")
	metricJoinErrors     = expvar.NewInt("join_errors_total")

	metricLinksExpired = expvar.NewInt("links_expired_total")
)
