package worker

// replay.go
// Background goroutine that periodically moves dead-lettered jobs back onto
// their queue once the SMTP breaker is closed again. Each job is replayed at
// most MaxReplays times; after that it stays in the DLQ for manual inspection.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	replayTickInterval = 5 * time.Minute
	replayBatchSize    = 20
)

// ReplayConfig holds the dependencies of the DLQ replay goroutine.
type ReplayConfig struct {
	RDB        *redis.Client
	CB         *infra.CircuitBreaker
	Queue      string
	MaxReplays int
	Interval   time.Duration
}

// StartDLQReplay ticks every cfg.Interval and replays a batch of DLQ entries.
// It respects the context for graceful shutdown.
func StartDLQReplay(ctx context.Context, cfg ReplayConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = replayTickInterval
	}
	if cfg.MaxReplays <= 0 {
		cfg.MaxReplays = 3
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Str("queue", cfg.Queue).Msg("dlq_replay: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("dlq_replay: shutting down")
				return
			case <-ticker.C:
				if n, err := ReplayDLQ(ctx, cfg); err != nil {
					log.Error().Err(err).Msg("dlq_replay: tick failed")
				} else if n > 0 {
					log.Info().Int("replayed", n).Str("queue", cfg.Queue).Msg("dlq_replay: jobs requeued")
				}
			}
		}
	}()
}

// ReplayDLQ requeues up to replayBatchSize entries and returns how many were requeued.
// Entries over the replay budget are pushed back to the DLQ untouched.
func ReplayDLQ(ctx context.Context, cfg ReplayConfig) (int, error) {
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("dlq_replay: circuit breaker is open, skipping tick")
		return 0, nil
	}

	dlqKey := DLQPrefix + cfg.Queue
	pending, err := cfg.RDB.LLen(ctx, dlqKey).Result()
	if err != nil {
		return 0, err
	}
	if pending > replayBatchSize {
		pending = replayBatchSize
	}

	replayed := 0
	for i := int64(0); i < pending; i++ {
		raw, err := cfg.RDB.RPop(ctx, dlqKey).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return replayed, err
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Msg("dlq_replay: dropping unreadable entry")
			continue
		}
		if entry.Replays >= cfg.MaxReplays {
			// Parked entries rotate to the head so the batch moves on.
			if err := cfg.RDB.LPush(ctx, dlqKey, raw).Err(); err != nil {
				return replayed, err
			}
			continue
		}

		job := Job{Type: entry.JobType, Payload: entry.Payload, Replays: entry.Replays + 1}
		if err := pushJob(ctx, cfg.RDB, entry.OriginalQueue, job); err != nil {
			_ = cfg.RDB.RPush(ctx, dlqKey, raw).Err()
			return replayed, err
		}
		replayed++
	}
	return replayed, nil
}
