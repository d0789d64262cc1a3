package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"modalsearch/internal/contextutil"
)

// HandlerFunc processes one job and returns its result payload.
type HandlerFunc func(ctx context.Context, job *Job) (any, error)

// workerQueue is the slice of queue behavior the worker pool needs.
// RedisQueue satisfies it; tests substitute a fake.
type workerQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
	markStarted(ctx context.Context, jobID string) error
	markSuccess(ctx context.Context, jobID string, result any) error
	markFailure(ctx context.Context, jobID string, jobErr error) error
}

// Worker runs a pool of goroutines draining the job queues.
type Worker struct {
	queue      workerQueue
	handlers   map[string]HandlerFunc
	count      int
	popTimeout time.Duration
	retryDelay time.Duration
}

// NewWorker creates a worker pool over the queue. Handlers are registered
// with Handle before Run is called.
func NewWorker(queue *RedisQueue, count int) *Worker {
	if count < 1 {
		count = 1
	}
	return &Worker{
		queue:      queue,
		handlers:   make(map[string]HandlerFunc),
		count:      count,
		popTimeout: 5 * time.Second,
		retryDelay: time.Second,
	}
}

// Handle registers the handler for a job type. Not safe to call after Run.
func (w *Worker) Handle(jobType string, fn HandlerFunc) {
	w.handlers[jobType] = fn
}

// Run blocks, processing jobs until ctx is cancelled and all in-flight
// jobs have finished.
func (w *Worker) Run(ctx context.Context) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "worker pool starting", "workers", w.count)

	var wg sync.WaitGroup
	for i := 0; i < w.count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()
	logger.InfoContext(ctx, "worker pool stopped")
}

func (w *Worker) loop(ctx context.Context, id int) {
	logger := contextutil.LoggerFromContext(ctx)

	for {
		if ctx.Err() != nil {
			return
		}

		job, err := w.queue.Dequeue(ctx, w.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.ErrorContext(ctx, "dequeue failed", "worker", id, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.retryDelay):
			}
			continue
		}
		if job == nil {
			continue
		}
		w.process(ctx, id, job)
	}
}

func (w *Worker) process(ctx context.Context, id int, job *Job) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "job started", "worker", id, "job_id", job.ID, "type", job.Type)

	if err := w.queue.markStarted(ctx, job.ID); err != nil {
		logger.ErrorContext(ctx, "failed to mark job started", "job_id", job.ID, "error", err)
	}

	handler, ok := w.handlers[job.Type]
	if !ok {
		err := fmt.Errorf("no handler for job type %q", job.Type)
		logger.ErrorContext(ctx, "job rejected", "job_id", job.ID, "error", err)
		if markErr := w.queue.markFailure(ctx, job.ID, err); markErr != nil {
			logger.ErrorContext(ctx, "failed to mark job failed", "job_id", job.ID, "error", markErr)
		}
		return
	}

	result, err := handler(ctx, job)
	if err != nil {
		logger.ErrorContext(ctx, "job failed", "worker", id, "job_id", job.ID, "type", job.Type, "error", err)
		if markErr := w.queue.markFailure(ctx, job.ID, err); markErr != nil {
			logger.ErrorContext(ctx, "failed to mark job failed", "job_id", job.ID, "error", markErr)
		}
		return
	}

	if err := w.queue.markSuccess(ctx, job.ID, result); err != nil {
		logger.ErrorContext(ctx, "failed to mark job succeeded", "job_id", job.ID, "error", err)
		return
	}
	logger.InfoContext(ctx, "job completed", "worker", id, "job_id", job.ID, "type", job.Type)
}
