package workspace

import (
	"context"
	"time"

	"studio/internal/domain"
)

// pollJob drives one backend job to a terminal state. Each in-flight request
// owns its own timer; there is no shared poll queue. The loop stops on the
// first terminal observation, on token cancellation (eviction or teardown),
// or when the poll deadline expires — the deadline path errors the request
// and refunds the submission debit.
func (o *Orchestrator) pollJob(requestID, jobID string, cost int) {
	ctx, cancel := context.WithCancel(o.baseCtx)
	defer cancel()
	o.store.BindCancel(requestID, cancel)

	metricActivePolls.Inc()
	defer metricActivePolls.Dec()

	deadline := time.Now().Add(o.pollTimeout)
	timer := time.NewTimer(o.pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// Evicted or torn down; the store entry is gone or frozen, so no
			// refund decision belongs here.
			return
		case <-timer.C:
		}

		metricPollTicks.Inc()
		snap, err := o.jobs.Status(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.logger.Warn().Err(err).Str("job_id", jobID).Msg("job poll failed")
			if time.Now().After(deadline) {
				o.failJob(requestID, jobID, "job polling timed out")
				return
			}
			timer.Reset(o.pollInterval)
			continue
		}

		switch {
		case snap.Status == domain.JobStatusDone && len(snap.ResultImages) > 0:
			if o.store.Complete(requestID, snap.ResultImages[0]) {
				metricDispatchTotal.WithLabelValues(string(domain.DispatchModeJob), "done").Inc()
				o.ResyncBalance(ctx)
			}
			return
		case snap.Status == domain.JobStatusDone:
			// Terminal without a single result image counts as a failure.
			o.failJob(requestID, jobID, "job finished without results")
			return
		case snap.Status == domain.JobStatusFailed:
			o.failJob(requestID, jobID, "generation job failed")
			return
		default:
			if time.Now().After(deadline) {
				o.failJob(requestID, jobID, "job polling timed out")
				return
			}
			timer.Reset(o.pollInterval)
		}
	}
}

// failJob errors the request and refunds the submission debit exactly once.
// Fail is single-shot per request, which is what makes the refund single-shot
// as well.
func (o *Orchestrator) failJob(requestID, jobID, message string) {
	req, ok := o.store.Fail(requestID, message)
	if !ok {
		return
	}
	metricDispatchTotal.WithLabelValues(string(domain.DispatchModeJob), "error").Inc()
	if req.Debited {
		o.ledger.Refund(req.Cost)
		metricRefunds.Inc()
		metricBalance.Set(float64(o.ledger.Balance()))
	}
	o.logger.Warn().Str("request_id", requestID).Str("job_id", jobID).Str("reason", message).Msg("job unit failed")
}
