package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

// testQueue points at a closed port, so Status calls fail fast and Wait
// exercises only its deadline and cancellation handling.
func testQueue() *RedisQueue {
	q := NewRedisQueue("127.0.0.1:1", "", 0)
	q.pollEvery = 5 * time.Millisecond
	return q
}

func TestRedisQueue_Wait_Timeout(t *testing.T) {
	q := testQueue()

	err := q.Wait(context.Background(), "job-1", 30*time.Millisecond, nil)
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("Wait() error = %v, want ErrWaitTimeout", err)
	}
}

func TestRedisQueue_Wait_CallerCancellation(t *testing.T) {
	q := testQueue()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := q.Wait(ctx, "job-1", time.Minute, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrWaitTimeout) {
		t.Error("Wait() reported a timeout for a cancelled caller")
	}
}
