package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail = "jobs:email"

	JobTypeEmail = "email"
)

// Job is the generic envelope for all async tasks. Replays counts how many
// times the job came back from the dead letter queue.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Replays int             `json:"replays,omitempty"`
}

// Handler processes the payload of one job type. A returned error is retried.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Permanent marks an error that retrying cannot fix; the job goes straight to the DLQ.
type Permanent struct{ Err error }

func (p Permanent) Error() string { return p.Err.Error() }
func (p Permanent) Unwrap() error { return p.Err }

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, QueueEmail, JobTypeEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return fmt.Errorf("dispatcher: redis not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return pushJob(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func pushJob(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// QueueLength returns the number of jobs waiting in queue.
func QueueLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, queue).Result()
}

// PoolConfig controls retries inside the worker pool.
type PoolConfig struct {
	Workers     int
	MaxAttempts int
	BaseBackoff time.Duration
}

func DefaultPoolConfig(workers int) PoolConfig {
	return PoolConfig{Workers: workers, MaxAttempts: 3, BaseBackoff: 500 * time.Millisecond}
}

// deadLetterFunc receives jobs that exhausted their attempts.
type deadLetterFunc func(ctx context.Context, queue string, job Job, reason string, attempts int)

// runner dispatches decoded jobs to their handler with bounded retries.
type runner struct {
	handlers map[string]Handler
	cfg      PoolConfig
	dead     deadLetterFunc
	sleep    func(ctx context.Context, d time.Duration) bool
}

// StartWorkerPool launches cfg.Workers goroutines consuming queue.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, queue string, handlers map[string]Handler, cfg PoolConfig) {
	r := &runner{
		handlers: handlers,
		cfg:      cfg,
		dead: func(ctx context.Context, queue string, job Job, reason string, attempts int) {
			SendToDLQ(ctx, rdb, queue, job, reason, attempts)
		},
		sleep: sleepCtx,
	}
	for i := 0; i < cfg.Workers; i++ {
		go r.run(ctx, rdb, queue, i)
	}
	log.Info().Str("queue", queue).Msgf("worker pool started with %d workers", cfg.Workers)
}

func (r *runner) run(ctx context.Context, rdb *redis.Client, queue string, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s, then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queue).Result()
			if err != nil {
				if !r.popFailed(ctx, id, err) {
					return
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			r.processJob(ctx, result[0], result[1])
		}
	}
}

func (r *runner) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	h, ok := r.handlers[job.Type]
	if !ok {
		r.dead(ctx, queue, job, "no handler for job type", 0)
		return
	}

	maxAttempts := r.cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = h.Process(ctx, job.Payload); err == nil {
			return
		}
		var perm Permanent
		if errors.As(err, &perm) {
			r.dead(ctx, queue, job, err.Error(), attempt)
			return
		}
		log.Warn().Err(err).Str("type", job.Type).Int("attempt", attempt).Msg("job failed")
		if attempt < maxAttempts && !r.sleep(ctx, r.cfg.BaseBackoff<<(attempt-1)) {
			return
		}
	}
	r.dead(ctx, queue, job, err.Error(), maxAttempts)
}

// sleepCtx waits d or until ctx is done; it reports whether the full wait elapsed.
// popRetryDelay is the pause after a failed BRPOP, e.g. while Redis is unreachable.
const popRetryDelay = time.Second

// popFailed handles a BRPOP error and reports whether the worker should keep
// polling. A timeout (redis.Nil) polls again at once; any other error pauses
// first so an unreachable Redis is not hammered.
func (r *runner) popFailed(ctx context.Context, id int, err error) bool {
	if errors.Is(err, redis.Nil) {
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	log.Warn().Err(err).Msgf("worker %d: dequeue failed", id)
	return r.sleep(ctx, popRetryDelay)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
