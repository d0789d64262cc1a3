package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// TaskStore defines the interface for task tracking operations.
type TaskStore interface {
	// Create inserts a new task row (status PENDING).
	Create(ctx context.Context, task *Task) error
	// ListByUser returns the user's tasks, newest first.
	ListByUser(ctx context.Context, userID uint) ([]Task, error)
	// GetByTaskID returns one task scoped to its owner, by external job id.
	// Returns ErrNotFound if missing or owned by someone else.
	GetByTaskID(ctx context.Context, userID uint, taskID string) (*Task, error)
	// Update persists status, completion time and result changes.
	Update(ctx context.Context, task *Task) error
}

// TaskRepo provides methods for task tracking operations.
// It implements the TaskStore interface.
type TaskRepo struct {
	db *gorm.DB
}

// NewTaskRepo creates a new TaskRepo.
func NewTaskRepo(db *gorm.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// Create inserts a new task row.
func (r *TaskRepo) Create(ctx context.Context, task *Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// ListByUser returns the user's tasks, newest first.
func (r *TaskRepo) ListByUser(ctx context.Context, userID uint) ([]Task, error) {
	var tasks []Task
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetByTaskID returns one task scoped to its owner, by external job id.
func (r *TaskRepo) GetByTaskID(ctx context.Context, userID uint, taskID string) (*Task, error) {
	var task Task
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return &task, nil
}

// Update persists status, completion time and result changes.
func (r *TaskRepo) Update(ctx context.Context, task *Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}
