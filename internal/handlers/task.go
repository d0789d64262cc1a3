package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"modalsearch/internal/service"
	"modalsearch/internal/storage"
)

// TaskHandler exposes background task tracking.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// TaskResponse is the JSON shape of one task.
type TaskResponse struct {
	TaskID      string  `json:"task_id"`
	Status      string  `json:"status"`
	ContentID   uint    `json:"content_id"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
	Result      *string `json:"result,omitempty"`
}

func taskResponse(t *storage.Task) TaskResponse {
	resp := TaskResponse{
		TaskID:    t.TaskID,
		Status:    t.Status,
		ContentID: t.ContentID,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
		Result:    t.Result,
	}
	if t.CompletedAt != nil {
		completed := t.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	return resp
}

// List returns the caller's tasks with refreshed statuses.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListTasks(ctx, userID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list tasks")
		return
	}

	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, taskResponse(&tasks[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns one task by its job id.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(ctx, userID, chi.URLParam(r, "taskID"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load task")
		return
	}
	writeJSON(w, http.StatusOK, taskResponse(task))
}
