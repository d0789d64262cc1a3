package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeQueue feeds jobs from a channel and records status transitions.
type fakeQueue struct {
	jobs chan *Job

	mu        sync.Mutex
	started   []string
	succeeded map[string]any
	failed    map[string]string
}

func newFakeQueue(jobs ...*Job) *fakeQueue {
	ch := make(chan *Job, len(jobs))
	for _, j := range jobs {
		ch <- j
	}
	return &fakeQueue{
		jobs:      ch,
		succeeded: make(map[string]any),
		failed:    make(map[string]string),
	}
}

func (f *fakeQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case job := <-f.jobs:
		return job, nil
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	}
}

func (f *fakeQueue) markStarted(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, jobID)
	return nil
}

func (f *fakeQueue) markSuccess(_ context.Context, jobID string, result any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.succeeded[jobID] = result
	return nil
}

func (f *fakeQueue) markFailure(_ context.Context, jobID string, jobErr error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[jobID] = jobErr.Error()
	return nil
}

func (f *fakeQueue) resolved(jobID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.succeeded[jobID]
	if !ok {
		_, ok = f.failed[jobID]
	}
	return ok
}

func runUntilResolved(t *testing.T, w *Worker, q *fakeQueue, jobIDs ...string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for _, id := range jobIDs {
		for !q.resolved(id) {
			select {
			case <-deadline:
				cancel()
				<-done
				t.Fatalf("job %s never resolved", id)
			case <-time.After(5 * time.Millisecond):
			}
		}
	}
	cancel()
	<-done
}

func TestWorker_SuccessfulJob(t *testing.T) {
	job := &Job{ID: "job-1", Type: JobProcessQuery, Payload: json.RawMessage(`{"text":"hello"}`)}
	queue := newFakeQueue(job)

	w := &Worker{
		queue:      queue,
		handlers:   make(map[string]HandlerFunc),
		count:      1,
		popTimeout: 10 * time.Millisecond,
		retryDelay: time.Millisecond,
	}
	w.Handle(JobProcessQuery, func(ctx context.Context, j *Job) (any, error) {
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(j.Payload, &payload); err != nil {
			return nil, err
		}
		return map[string]string{"echo": payload.Text}, nil
	})

	runUntilResolved(t, w, queue, "job-1")

	if len(queue.started) != 1 || queue.started[0] != "job-1" {
		t.Errorf("started transitions = %v, want [job-1]", queue.started)
	}
	result, ok := queue.succeeded["job-1"]
	if !ok {
		t.Fatalf("job-1 not marked succeeded; failures: %v", queue.failed)
	}
	echo := result.(map[string]string)["echo"]
	if echo != "hello" {
		t.Errorf("stored result = %v, want echo of payload", result)
	}
}

func TestWorker_FailedJob(t *testing.T) {
	job := &Job{ID: "job-2", Type: JobProcessFile}
	queue := newFakeQueue(job)

	w := &Worker{
		queue:      queue,
		handlers:   make(map[string]HandlerFunc),
		count:      1,
		popTimeout: 10 * time.Millisecond,
		retryDelay: time.Millisecond,
	}
	w.Handle(JobProcessFile, func(ctx context.Context, j *Job) (any, error) {
		return nil, errors.New("encoder unreachable")
	})

	runUntilResolved(t, w, queue, "job-2")

	if msg, ok := queue.failed["job-2"]; !ok || msg != "encoder unreachable" {
		t.Errorf("failure = (%q, %v), want handler error recorded", msg, ok)
	}
	if _, ok := queue.succeeded["job-2"]; ok {
		t.Error("failed job was also marked succeeded")
	}
}

func TestWorker_UnknownJobType(t *testing.T) {
	job := &Job{ID: "job-3", Type: "transcode_video"}
	queue := newFakeQueue(job)

	w := &Worker{
		queue:      queue,
		handlers:   make(map[string]HandlerFunc),
		count:      1,
		popTimeout: 10 * time.Millisecond,
		retryDelay: time.Millisecond,
	}

	runUntilResolved(t, w, queue, "job-3")

	if _, ok := queue.failed["job-3"]; !ok {
		t.Error("job with no registered handler was not marked failed")
	}
}

func TestWorker_StopsOnCancel(t *testing.T) {
	queue := newFakeQueue()
	w := &Worker{
		queue:      queue,
		handlers:   make(map[string]HandlerFunc),
		count:      3,
		popTimeout: 10 * time.Millisecond,
		retryDelay: time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancellation")
	}
}
