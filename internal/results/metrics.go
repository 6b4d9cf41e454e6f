package results

import "expvar"

var (
	metricQueuedTotal  = expvar.NewInt("results_queued_total")
	metricDroppedTotal = expvar.NewInt("results_dropped_total")
	metricWrittenTotal = expvar.NewInt("results_written_total")
	metricFailedTotal  = expvar.NewInt("results_failed_total")
	metricRetryTotal   = expvar.NewInt("results_retry_total")
	metricQueueLen     = expvar.NewInt("results_queue_len")
)
