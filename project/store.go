package project

import (
	"context"

	"github.com/xraph/foreman/id"
)

// Store defines persistence operations for projects and their assignee set.
// Implementations load AssigneeIDs with the project on every read.
type Store interface {
	// CreateProject persists a new project, including its assignee set.
	CreateProject(ctx context.Context, p *Project) error

	// GetProject retrieves a project by ID with assignees loaded.
	GetProject(ctx context.Context, projectID id.ProjectID) (*Project, error)

	// UpdateProject persists changes to a project's fields (not assignees).
	UpdateProject(ctx context.Context, p *Project) error

	// DeleteProject removes a project and cascades to its tasks and their
	// grants.
	DeleteProject(ctx context.Context, projectID id.ProjectID) error

	// ListProjects returns projects matching the filter, assignees loaded.
	ListProjects(ctx context.Context, filter *ListFilter) ([]*Project, error)

	// SetAssignees replaces the full assignee set for a project.
	SetAssignees(ctx context.Context, projectID id.ProjectID, userIDs []id.UserID) error

	// ListProjectIDsForAssignee returns the IDs of every project the user is
	// assigned to.
	ListProjectIDsForAssignee(ctx context.Context, userID id.UserID) ([]id.ProjectID, error)
}
