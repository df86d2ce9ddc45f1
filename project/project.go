// Package project defines the Project entity and its store interface.
package project

import (
	"time"

	"github.com/xraph/foreman/id"
)

// Project is a container for tasks with an owner and a mutable assignee set.
// The owner created the project; assignees gain visibility of the project's
// tasks but no edit or delete rights from assignment alone.
type Project struct {
	ID          id.ProjectID `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Description string       `json:"description,omitempty" db:"description"`
	OwnerID     id.UserID    `json:"owner_id" db:"owner_id"`
	AssigneeIDs []id.UserID  `json:"assignee_ids,omitempty" db:"-"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// HasAssignee reports whether the given user is in the assignee set.
func (p *Project) HasAssignee(userID id.UserID) bool {
	for _, a := range p.AssigneeIDs {
		if a.String() == userID.String() {
			return true
		}
	}
	return false
}

// ListFilter contains filters for listing projects.
type ListFilter struct {
	OwnerID *id.UserID `json:"owner_id,omitempty"`
	Search  string     `json:"search,omitempty"`
	Limit   int        `json:"limit,omitempty"`
	Offset  int        `json:"offset,omitempty"`
}
