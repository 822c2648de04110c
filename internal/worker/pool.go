package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boigordo/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAlerts  = "jobs:alerts"
	QueueReports = "jobs:reports"

	JobTypeAlert  = "mortality_alert"
	JobTypeReport = "monthly_report"

	// MaxJobAttempts is the number of tries before a job goes to the DLQ.
	MaxJobAttempts = 3

	pollErrorBackoff = 2 * time.Second
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// JobHandler processes one job payload. A returned error triggers a retry.
type JobHandler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// RetryWithPayload asks the pool to retry with Payload instead of the
// original, so work that already succeeded is not repeated.
type RetryWithPayload struct {
	Payload json.RawMessage
	Err     error
}

func (e *RetryWithPayload) Error() string { return e.Err.Error() }
func (e *RetryWithPayload) Unwrap() error { return e.Err }

// nextPayload is the payload a failed job carries into its next attempt.
func nextPayload(current json.RawMessage, err error) json.RawMessage {
	var r *RetryWithPayload
	if errors.As(err, &r) && len(r.Payload) > 0 {
		return r.Payload
	}
	return current
}

// WorkerHandlers maps job types to their handlers. Nil handlers drop jobs of
// that type with a warning.
type WorkerHandlers struct {
	Alert  JobHandler
	Report JobHandler
}

func (h *WorkerHandlers) forType(jobType string) JobHandler {
	if h == nil {
		return nil
	}
	switch jobType {
	case JobTypeAlert:
		return h.Alert
	case JobTypeReport:
		return h.Report
	}
	return nil
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueAlert pushes a high-mortality alert job.
func (d *Dispatcher) EnqueueAlert(ctx context.Context, alert MortalityAlert) error {
	return d.enqueue(ctx, QueueAlerts, Job{Type: JobTypeAlert}, alert)
}

// EnqueueReport pushes a monthly report job.
func (d *Dispatcher) EnqueueReport(ctx context.Context, req ReportRequest) error {
	return d.enqueue(ctx, QueueReports, Job{Type: JobTypeReport}, req)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue string, job Job, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job.Payload = data
	return pushJob(ctx, d.rdb, queue, job)
}

func pushJob(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming every queue.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, id int) {
	queues := []string{QueueAlerts, QueueReports}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if errors.Is(err, redis.Nil) {
				continue // timeout
			}
			if err != nil {
				if ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("dequeue failed")
				}
				if !sleepCtx(ctx, pollErrorBackoff) {
					log.Info().Msgf("worker %d shutting down", id)
					return
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, "unknown", json.RawMessage(raw), "malformed envelope: "+err.Error(), 0)
		return
	}

	h := handlers.forType(job.Type)
	if h == nil {
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("no handler for job type, dropping")
		metrics.JobsProcessed.WithLabelValues(job.Type, "dropped").Inc()
		return
	}

	err := h.Process(ctx, job.Payload)
	if err == nil {
		metrics.JobsProcessed.WithLabelValues(job.Type, "ok").Inc()
		return
	}

	job.Attempts++
	job.Payload = nextPayload(job.Payload, err)
	if job.Attempts >= MaxJobAttempts {
		metrics.JobsProcessed.WithLabelValues(job.Type, "dead").Inc()
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload,
			fmt.Sprintf("max attempts (%d) exceeded: %v", MaxJobAttempts, err), job.Attempts)
		return
	}

	metrics.JobsProcessed.WithLabelValues(job.Type, "retry").Inc()
	log.Warn().Err(err).
		Str("type", job.Type).
		Int("attempt", job.Attempts).
		Msg("job failed, requeueing")

	if !sleepCtx(ctx, retryBackoff(job.Attempts)) {
		return
	}
	if pushErr := pushJob(ctx, rdb, queue, job); pushErr != nil {
		log.Error().Err(pushErr).Str("queue", queue).Msg("failed to requeue job")
	}
}

// retryBackoff doubles from one second per attempt.
func retryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(1<<(attempt-1)) * time.Second
}

// sleepCtx waits d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
