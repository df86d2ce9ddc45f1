// Package task defines the Task entity, its priority/status enums, and its
// store interface.
package task

import (
	"fmt"
	"time"

	"github.com/xraph/foreman/id"
)

// Priority is the business priority of a task.
type Priority string

// Priority values, lowest to highest.
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority parses a priority string.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("task: invalid priority %q", s)
	}
	return p, nil
}

// Status is the workflow state of a task.
type Status string

// Status values.
const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus parses a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("task: invalid status %q", s)
	}
	return st, nil
}

// DefaultDescription is applied when a task is created without one.
const DefaultDescription = "No description provided"

// Task is a unit of work owned by a user, optionally inside a project.
type Task struct {
	ID          id.TaskID    `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description,omitempty" db:"description"`
	DueDate     time.Time    `json:"due_date" db:"due_date"`
	Priority    Priority     `json:"priority" db:"priority"`
	Status      Status       `json:"status" db:"status"`
	OwnerID     id.UserID    `json:"owner_id" db:"owner_id"`
	ProjectID   id.ProjectID `json:"project_id,omitempty" db:"project_id"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing tasks.
type ListFilter struct {
	OwnerID   *id.UserID    `json:"owner_id,omitempty"`
	ProjectID *id.ProjectID `json:"project_id,omitempty"`
	Status    Status        `json:"status,omitempty"`
	Priority  Priority      `json:"priority,omitempty"`
	Search    string        `json:"search,omitempty"`
	Limit     int           `json:"limit,omitempty"`
	Offset    int           `json:"offset,omitempty"`
}
