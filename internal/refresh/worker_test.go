package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeJobSource struct {
	mu       sync.Mutex
	jobs     []Job
	requeued []Job
}

func (f *fakeJobSource) Dequeue(_ context.Context, _ time.Duration) (*Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.jobs) == 0 {
		return nil, nil
	}
	job := f.jobs[0]
	f.jobs = f.jobs[1:]
	return &job, nil
}

// Requeue feeds jobs back for redelivery, mirroring the broker loop.
func (f *fakeJobSource) Requeue(_ context.Context, job Job) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requeued = append(f.requeued, job)
	f.jobs = append(f.jobs, job)
	return true
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRefresher) RefreshProduct(_ context.Context, _ string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return Result{}, f.err
}

func TestWorkerProcessSuccess(t *testing.T) {
	source := &fakeJobSource{}
	refresher := &fakeRefresher{}
	worker := NewWorker(source, refresher, WorkerOptions{MaxAttempts: 3}, zerolog.Nop())

	worker.process(context.Background(), Job{ID: "j1", SKU: "sku-1"})

	if refresher.calls != 1 {
		t.Fatalf("expected 1 refresh call, got %d", refresher.calls)
	}
	if len(source.requeued) != 0 {
		t.Fatalf("successful job must not be requeued, got %d", len(source.requeued))
	}
}

func TestWorkerProcessFailureRequeuesWithBumpedAttempts(t *testing.T) {
	source := &fakeJobSource{}
	refresher := &fakeRefresher{err: errors.New("vendor down")}
	worker := NewWorker(source, refresher, WorkerOptions{MaxAttempts: 3}, zerolog.Nop())

	worker.process(context.Background(), Job{ID: "j1", SKU: "sku-1", Attempts: 0})

	if len(source.requeued) != 1 {
		t.Fatalf("failed job should be requeued once, got %d", len(source.requeued))
	}
	if source.requeued[0].Attempts != 1 {
		t.Fatalf("attempt counter should advance to 1, got %d", source.requeued[0].Attempts)
	}
}

func TestWorkerProcessDropsAtAttemptCap(t *testing.T) {
	source := &fakeJobSource{}
	refresher := &fakeRefresher{err: errors.New("vendor down")}
	worker := NewWorker(source, refresher, WorkerOptions{MaxAttempts: 3}, zerolog.Nop())

	worker.process(context.Background(), Job{ID: "j1", SKU: "sku-1", Attempts: 2})

	if len(source.requeued) != 0 {
		t.Fatalf("job at the attempt cap must be dropped, got %d requeues", len(source.requeued))
	}
}

func TestWorkerRunDrainsAndRetriesUntilCap(t *testing.T) {
	source := &fakeJobSource{jobs: []Job{{ID: "j1", SKU: "sku-1"}}}
	refresher := &fakeRefresher{err: errors.New("vendor down")}
	worker := NewWorker(source, refresher, WorkerOptions{MaxAttempts: 3, DequeueTimeout: time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	// Requeued jobs feed back into the fake source, so a permanently failing
	// refresher should execute exactly MaxAttempts times before the drop.
	deadline := time.After(2 * time.Second)
	for {
		refresher.mu.Lock()
		source.mu.Lock()
		finished := refresher.calls >= 3 && len(source.jobs) == 0 && len(source.requeued) == 2
		source.mu.Unlock()
		refresher.mu.Unlock()
		if finished {
			break
		}
		select {
		case <-deadline:
			t.Fatal("worker did not drain the queue in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done

	refresher.mu.Lock()
	calls := refresher.calls
	refresher.mu.Unlock()
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
}
