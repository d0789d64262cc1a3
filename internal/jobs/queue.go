// Package jobs provides the durable queue the embedding pipeline runs on:
// priority enqueue, status/result tracking and a bounded synchronous wait.
package jobs

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_client.go -package=mocks modalsearch/internal/jobs Client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Queue names. Workers pop the interactive list first, so query-embedding
// jobs are never starved by ingestion backlog.
const (
	QueueInteractive = "embed:interactive"
	QueueIngest      = "embed:ingest"
)

// Job types.
const (
	JobProcessFile  = "process_file"
	JobProcessQuery = "process_query"
)

// Job statuses. PENDING moves to STARTED when a worker picks the job up,
// then to exactly one of SUCCESS or FAILURE.
const (
	StatusPending = "PENDING"
	StatusStarted = "STARTED"
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

var (
	// ErrUnavailable is returned when the queue cannot be reached.
	ErrUnavailable = errors.New("job queue unavailable")
	// ErrUnknownJob is returned when no status is recorded for a job id.
	ErrUnknownJob = errors.New("unknown job")
	// ErrWaitTimeout is returned when a bounded wait elapses before the
	// job resolves. The job may still complete later; its result is
	// orphaned and expires with the key TTL.
	ErrWaitTimeout = errors.New("timed out waiting for job")
)

// Priority selects the queue a job is pushed onto.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

// Job is the payload travelling through the queue.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// failureEnvelope carries a worker error message through the result key.
type failureEnvelope struct {
	Error string `json:"error"`
}

// Client defines the job system operations the rest of the backend uses.
type Client interface {
	// Enqueue pushes a job and records its PENDING status.
	Enqueue(ctx context.Context, jobType string, payload any, priority Priority) (string, error)
	// Status returns the live status for a job id.
	Status(ctx context.Context, jobID string) (string, error)
	// Result decodes the stored result of a successful job into out.
	Result(ctx context.Context, jobID string, out any) error
	// Wait blocks until the job resolves or timeout elapses. The timeout
	// is a hard cutover: once it fires the call returns ErrWaitTimeout
	// even if the job completes a moment later.
	Wait(ctx context.Context, jobID string, timeout time.Duration, out any) error
}

// RedisQueue implements Client on redis lists and keys.
type RedisQueue struct {
	rdb       *redis.Client
	resultTTL time.Duration
	pollEvery time.Duration
}

// NewRedisQueue creates a redis-backed job queue.
func NewRedisQueue(addr, password string, db int) *RedisQueue {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisQueue{
		rdb:       rdb,
		resultTTL: 24 * time.Hour,
		pollEvery: 100 * time.Millisecond,
	}
}

// Ping verifies the connection.
func (q *RedisQueue) Ping(ctx context.Context) error {
	if err := q.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func statusKey(jobID string) string { return "job:" + jobID + ":status" }
func resultKey(jobID string) string { return "job:" + jobID + ":result" }

// Enqueue pushes a job and records its PENDING status.
func (q *RedisQueue) Enqueue(ctx context.Context, jobType string, payload any, priority Priority) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}
	encoded, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	queue := QueueIngest
	if priority == PriorityHigh {
		queue = QueueInteractive
	}

	if err := q.rdb.Set(ctx, statusKey(job.ID), StatusPending, q.resultTTL).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := q.rdb.RPush(ctx, queue, encoded).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return job.ID, nil
}

// Dequeue pops the next job, preferring the interactive queue. A nil job
// with nil error means the timeout passed with nothing to do.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.rdb.BLPop(ctx, timeout, QueueInteractive, QueueIngest).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("malformed BLPOP reply")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}

// Status returns the live status for a job id.
func (q *RedisQueue) Status(ctx context.Context, jobID string) (string, error) {
	status, err := q.rdb.Get(ctx, statusKey(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnknownJob
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return status, nil
}

// Result decodes the stored result of a successful job into out.
func (q *RedisQueue) Result(ctx context.Context, jobID string, out any) error {
	raw, err := q.rdb.Get(ctx, resultKey(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrUnknownJob
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to decode job result: %w", err)
	}
	return nil
}

// Wait blocks until the job resolves or timeout elapses.
func (q *RedisQueue) Wait(ctx context.Context, jobID string, timeout time.Duration, out any) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(q.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			// The caller going away is not a timeout.
			if err := ctx.Err(); err != nil {
				return err
			}
			return ErrWaitTimeout
		case <-ticker.C:
			status, err := q.Status(waitCtx, jobID)
			if err != nil {
				// Transient outages keep polling; the deadline bounds us.
				continue
			}
			switch status {
			case StatusSuccess:
				return q.Result(waitCtx, jobID, out)
			case StatusFailure:
				var failure failureEnvelope
				if err := q.Result(waitCtx, jobID, &failure); err != nil {
					return fmt.Errorf("job failed")
				}
				return fmt.Errorf("job failed: %s", failure.Error)
			}
		}
	}
}

// markStarted, markSuccess and markFailure are the worker-side transitions.

func (q *RedisQueue) markStarted(ctx context.Context, jobID string) error {
	return q.rdb.Set(ctx, statusKey(jobID), StatusStarted, q.resultTTL).Err()
}

func (q *RedisQueue) markSuccess(ctx context.Context, jobID string, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal job result: %w", err)
	}
	if err := q.rdb.Set(ctx, resultKey(jobID), raw, q.resultTTL).Err(); err != nil {
		return err
	}
	return q.rdb.Set(ctx, statusKey(jobID), StatusSuccess, q.resultTTL).Err()
}

func (q *RedisQueue) markFailure(ctx context.Context, jobID string, jobErr error) error {
	raw, err := json.Marshal(failureEnvelope{Error: jobErr.Error()})
	if err != nil {
		return fmt.Errorf("failed to marshal job failure: %w", err)
	}
	if err := q.rdb.Set(ctx, resultKey(jobID), raw, q.resultTTL).Err(); err != nil {
		return err
	}
	return q.rdb.Set(ctx, statusKey(jobID), StatusFailure, q.resultTTL).Err()
}
