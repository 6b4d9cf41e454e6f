package spectatorpush

import (
	"context"
	"errors"
	"time"

	"arena-core/internal/spectatorpush/platforms"

	"github.com/rs/zerolog/log"
)

// maxRetryDelay caps the exponential backoff between attempts.
const maxRetryDelay = time.Minute

var errCircuitOpen = errors.New("circuit_open")

func (m *Manager) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case job := <-m.dispatchCh:
			metricPushQueueLen.Set(int64(len(m.dispatchCh)))
			m.processJob(ctx, job)
		}
	}
}

func (m *Manager) processJob(ctx context.Context, job pushJob) {
	adapter := m.adapters[job.Target.Platform]
	if adapter == nil {
		metricPushDroppedTotal.Add(1)
		log.Warn().Str("platform", job.Target.Platform).Msg("match push has no adapter")
		return
	}
	key := job.key()
	if !m.breakers.allow(key, m.now()) {
		metricPushCircuitOpenTotal.Add(1)
		m.retryOrDrop(job, errCircuitOpen)
		return
	}

	if err := adapter.Send(ctx, job.Target.Endpoint, job.Target.Secret, toPlatformMessage(job.Formatted)); err != nil {
		metricPushFailedTotal.Add(1)
		if m.breakers.fail(key, m.now()) {
			log.Warn().
				Str("platform", job.Target.Platform).
				Dur("cooldown", m.cfg.CircuitOpenDuration).
				Msg("match push target paused")
		}
		m.retryOrDrop(job, err)
		return
	}
	metricPushSentTotal.Add(1)
	m.breakers.succeed(key)
}

func (m *Manager) retryOrDrop(job pushJob, err error) {
	if job.Attempt >= m.cfg.RetryMax {
		metricPushRetryDroppedTotal.Add(1)
		log.Warn().
			Err(err).
			Str("platform", job.Target.Platform).
			Str("event", job.Notice.EventType).
			Str("arena_id", job.Notice.ArenaID).
			Int("attempts", job.Attempt+1).
			Msg("match push dropped")
		return
	}
	job.Attempt++
	metricPushRetryTotal.Add(1)
	m.retryQ.Enqueue(job, retryDelay(m.cfg.RetryBase, job.Attempt))
}

// retryDelay doubles base for every attempt after the first.
func retryDelay(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt && d < maxRetryDelay; i++ {
		d *= 2
	}
	return min(d, maxRetryDelay)
}

func toPlatformMessage(msg FormattedMessage) platforms.Message {
	out := platforms.Message{
		Title:       msg.Title,
		Content:     msg.Content,
		Description: msg.Description,
		Color:       msg.Color,
		Timestamp:   msg.Timestamp,
		Footer:      msg.Footer,
		Fields:      make([]platforms.Field, len(msg.Fields)),
	}
	for i, f := range msg.Fields {
		out.Fields[i] = platforms.Field(f)
	}
	return out
}
