package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modalsearch/internal/contextutil"
	"modalsearch/internal/jobs"
	"modalsearch/internal/storage"
)

// resultSnippetMax caps how much of a job result is copied onto the task
// row. Full results live in the queue until their TTL expires.
const resultSnippetMax = 512

// TaskService exposes background task tracking. Stored task rows are the
// durable record; the job queue is the live source of truth while it is
// reachable. Reads reconcile the two.
type TaskService struct {
	tasks storage.TaskStore
	queue jobs.Client
}

// NewTaskService creates a task service.
func NewTaskService(tasks storage.TaskStore, queue jobs.Client) *TaskService {
	return &TaskService{tasks: tasks, queue: queue}
}

// ListTasks returns the user's tasks, each refreshed against the queue.
func (s *TaskService) ListTasks(ctx context.Context, userID uint) ([]storage.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, WrapError(err, "failed to list tasks")
	}
	for i := range tasks {
		s.reconcile(ctx, &tasks[i])
	}
	return tasks, nil
}

// GetTask returns one task by its external job id, refreshed against the
// queue. Returns ErrNotFound for unknown ids and other users' tasks.
func (s *TaskService) GetTask(ctx context.Context, userID uint, taskID string) (*storage.Task, error) {
	task, err := s.tasks.GetByTaskID(ctx, userID, taskID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if err != nil {
		return nil, WrapError(err, "failed to load task")
	}
	s.reconcile(ctx, task)
	return task, nil
}

// reconcile pulls the live status for a non-terminal task and persists any
// change. A terminal row is immutable. When the queue is unreachable the
// stored status stands; staleness beats an error page.
func (s *TaskService) reconcile(ctx context.Context, task *storage.Task) {
	logger := contextutil.LoggerFromContext(ctx)

	if task.Status == jobs.StatusSuccess || task.Status == jobs.StatusFailure {
		return
	}

	live, err := s.queue.Status(ctx, task.TaskID)
	if err != nil {
		logger.WarnContext(ctx, "task status refresh failed, serving stored status",
			"task_id", task.TaskID, "stored_status", task.Status, "error", err)
		return
	}
	if live == task.Status {
		return
	}

	task.Status = live
	if live == jobs.StatusSuccess || live == jobs.StatusFailure {
		now := time.Now().UTC()
		task.CompletedAt = &now
		if snippet := s.resultSnippet(ctx, task.TaskID); snippet != "" {
			task.Result = &snippet
		}
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		// The caller still gets the fresh status; the row catches up on a
		// later read.
		logger.ErrorContext(ctx, "failed to persist task status",
			"task_id", task.TaskID, "status", live, "error", err)
	}
}

func (s *TaskService) resultSnippet(ctx context.Context, taskID string) string {
	var raw json.RawMessage
	if err := s.queue.Result(ctx, taskID, &raw); err != nil {
		return ""
	}
	snippet := string(raw)
	if len(snippet) > resultSnippetMax {
		snippet = snippet[:resultSnippetMax]
	}
	return snippet
}
