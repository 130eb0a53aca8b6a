package refresh

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Refresher executes one product refresh. The Coordinator is the production
// implementation.
type Refresher interface {
	RefreshProduct(ctx context.Context, sku string) (Result, error)
}

// JobSource supplies refresh jobs and accepts failed ones back. The Queue is
// the production implementation.
type JobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
	Requeue(ctx context.Context, job Job) bool
}

// WorkerOptions tune job consumption.
type WorkerOptions struct {
	// MaxAttempts caps total attempts per job before it is dropped.
	MaxAttempts int
	// DequeueTimeout bounds each blocking pop.
	DequeueTimeout time.Duration
}

// Worker is the single queue consumer: it pulls refresh jobs and executes
// them, re-enqueueing failures until the attempt cap is reached. Running
// several workers is safe only because RefreshProduct is idempotent.
type Worker struct {
	queue     JobSource
	refresher Refresher
	opts      WorkerOptions
	logger    zerolog.Logger
}

// NewWorker constructs a Worker, applying defaults for unset options.
func NewWorker(queue JobSource, refresher Refresher, opts WorkerOptions, logger zerolog.Logger) *Worker {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.DequeueTimeout <= 0 {
		opts.DequeueTimeout = 5 * time.Second
	}
	return &Worker{
		queue:     queue,
		refresher: refresher,
		opts:      opts,
		logger:    logger.With().Str("component", "refresh_worker").Logger(),
	}
}

// Run consumes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("refresh worker started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		job, err := w.queue.Dequeue(ctx, w.opts.DequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			w.logger.Warn().Err(err).Msg("dequeue failed, backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		w.process(ctx, *job)
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	w.logger.Info().Str("sku", job.SKU).Str("job_id", job.ID).Int("attempts", job.Attempts).Msg("processing refresh job")

	if _, err := w.refresher.RefreshProduct(ctx, job.SKU); err != nil {
		job.Attempts++
		if job.Attempts >= w.opts.MaxAttempts {
			w.logger.Error().Err(err).Str("sku", job.SKU).Str("job_id", job.ID).
				Int("attempts", job.Attempts).
				Msg("refresh job exhausted attempts, dropping")
			return
		}
		w.logger.Warn().Err(err).Str("sku", job.SKU).Str("job_id", job.ID).
			Int("attempts", job.Attempts).
			Msg("refresh job failed, re-enqueueing")
		w.queue.Requeue(ctx, job)
		return
	}

	w.logger.Info().Str("sku", job.SKU).Str("job_id", job.ID).Msg("refresh job completed")
}
