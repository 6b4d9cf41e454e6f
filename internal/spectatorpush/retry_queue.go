package spectatorpush

import "time"

type retryQueue struct {
	out  chan<- pushJob
	done <-chan struct{}
}

func newRetryQueue(out chan<- pushJob, done <-chan struct{}) *retryQueue {
	return &retryQueue{out: out, done: done}
}

// Enqueue hands job back to the workers after delay unless the manager has
// stopped by then.
func (q *retryQueue) Enqueue(job pushJob, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		select {
		case <-q.done:
			metricPushRetryDroppedTotal.Add(1)
		case q.out <- job:
			metricPushQueueLen.Set(int64(len(q.out)))
		}
	})
}
