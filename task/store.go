package task

import (
	"context"

	"github.com/xraph/foreman/id"
)

// Store defines persistence operations for tasks.
type Store interface {
	// CreateTask persists a new task.
	CreateTask(ctx context.Context, t *Task) error

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, taskID id.TaskID) (*Task, error)

	// UpdateTask persists changes to a task.
	UpdateTask(ctx context.Context, t *Task) error

	// DeleteTask removes a task and cascades to its grants.
	DeleteTask(ctx context.Context, taskID id.TaskID) error

	// ListTasks returns tasks matching the filter, ordered by due date then
	// priority.
	ListTasks(ctx context.Context, filter *ListFilter) ([]*Task, error)
}
