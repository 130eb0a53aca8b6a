package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const queueKey = "offerwatch:queue:price-refresh"

// Job is one queued refresh request. Delivery is at-least-once; consuming
// is idempotent because RefreshProduct fully overwrites its result.
type Job struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Attempts   int       `json:"attempts"`
}

// Queue is a Redis-list-backed refresh job queue. Enqueueing is best-effort:
// a missing or unreachable broker downgrades to a logged warning so the
// synchronous paths never block on queue availability.
type Queue struct {
	rdb    redis.UniversalClient
	key    string
	logger zerolog.Logger
}

// NewQueue constructs a Queue. A nil client disables queueing entirely.
func NewQueue(rdb redis.UniversalClient, logger zerolog.Logger) *Queue {
	return &Queue{
		rdb:    rdb,
		key:    queueKey,
		logger: logger.With().Str("component", "refresh_queue").Logger(),
	}
}

// Enqueue adds a refresh job for the SKU. Returns whether the job actually
// reached the broker; false means the enqueue was dropped (never an error).
func (q *Queue) Enqueue(ctx context.Context, sku string) bool {
	job := Job{ID: uuid.NewString(), SKU: sku, EnqueuedAt: time.Now().UTC()}
	if !q.push(ctx, job) {
		return false
	}
	q.logger.Info().Str("sku", sku).Str("job_id", job.ID).Msg("refresh job enqueued")
	return true
}

// Requeue puts a failed job back with its attempt counter already advanced.
func (q *Queue) Requeue(ctx context.Context, job Job) bool {
	return q.push(ctx, job)
}

func (q *Queue) push(ctx context.Context, job Job) bool {
	if q.rdb == nil {
		q.logger.Warn().Str("sku", job.SKU).Msg("skipping enqueue, broker not configured")
		return false
	}

	payload, err := json.Marshal(job)
	if err != nil {
		q.logger.Error().Err(err).Str("sku", job.SKU).Msg("failed to marshal refresh job")
		return false
	}
	if err := q.rdb.LPush(ctx, q.key, payload).Err(); err != nil {
		q.logger.Warn().Err(err).Str("sku", job.SKU).Msg("skipping enqueue, broker unavailable")
		return false
	}
	return true
}

// Dequeue blocks up to timeout for the next job. A nil job with nil error
// means the wait timed out with nothing to do.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	if q.rdb == nil {
		return nil, errors.New("refresh queue: broker not configured")
	}

	values, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BRPOP returns [key, value].
	if len(values) != 2 {
		return nil, nil
	}

	var job Job
	if err := json.Unmarshal([]byte(values[1]), &job); err != nil {
		q.logger.Error().Err(err).Msg("dropping undecodable refresh job")
		return nil, nil
	}
	return &job, nil
}
