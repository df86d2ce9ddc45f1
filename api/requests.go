package api

// ──────────────────────────────────────────────────
// User requests
// ──────────────────────────────────────────────────

// RegisterUserRequest is the body for registering a user reference.
type RegisterUserRequest struct {
	Username  string `json:"username" description:"Unique username"`
	Superuser bool   `json:"superuser,omitempty" description:"Global admin flag"`
}

// ListUsersRequest holds query parameters for listing users.
type ListUsersRequest struct {
	Search string `query:"search" description:"Search by username"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Project requests
// ──────────────────────────────────────────────────

// CreateProjectRequest is the body for creating a project.
type CreateProjectRequest struct {
	ActorID     string   `json:"actor_id" description:"Acting user ID"`
	Name        string   `json:"name" description:"Project name"`
	Description string   `json:"description,omitempty" description:"Human-readable description"`
	OwnerID     string   `json:"owner_id,omitempty" description:"Explicit owner; honored for superusers only"`
	AssigneeIDs []string `json:"assignee_ids,omitempty" description:"User IDs assigned to the project"`
}

// UpdateProjectRequest is the body for updating a project. Omitted fields
// are left unchanged.
type UpdateProjectRequest struct {
	ActorID     string    `json:"actor_id" description:"Acting user ID"`
	Name        *string   `json:"name,omitempty" description:"Project name"`
	Description *string   `json:"description,omitempty" description:"Human-readable description"`
	AssigneeIDs *[]string `json:"assignee_ids,omitempty" description:"Replacement assignee set"`
}

// GetProjectRequest holds parameters for fetching one project.
type GetProjectRequest struct {
	ProjectID string `path:"projectId" description:"Project ID"`
	ActorID   string `query:"actor_id" description:"Acting user ID"`
}

// ListProjectsRequest holds query parameters for the visibility listing.
type ListProjectsRequest struct {
	ActorID string `query:"actor_id" description:"Acting user ID"`
}

// DeleteProjectRequest holds parameters for deleting a project.
type DeleteProjectRequest struct {
	ProjectID string `path:"projectId" description:"Project ID"`
	ActorID   string `query:"actor_id" description:"Acting user ID"`
}

// ──────────────────────────────────────────────────
// Task requests
// ──────────────────────────────────────────────────

// CreateTaskRequest is the body for creating a task.
type CreateTaskRequest struct {
	ActorID     string `json:"actor_id" description:"Acting user ID"`
	Title       string `json:"title" description:"Task title"`
	Description string `json:"description,omitempty" description:"Task description"`
	DueDate     string `json:"due_date,omitempty" description:"Due date (RFC3339, defaults to today)"`
	Priority    string `json:"priority,omitempty" description:"Low, Medium, or High (default: Medium)"`
	Status      string `json:"status,omitempty" description:"Pending, In Progress, or Completed (default: Pending)"`
	ProjectID   string `json:"project_id,omitempty" description:"Parent project ID"`
}

// UpdateTaskRequest is the body for updating a task. Omitted fields are
// left unchanged.
type UpdateTaskRequest struct {
	ActorID     string  `json:"actor_id" description:"Acting user ID"`
	Title       *string `json:"title,omitempty" description:"Task title"`
	Description *string `json:"description,omitempty" description:"Task description"`
	DueDate     *string `json:"due_date,omitempty" description:"Due date (RFC3339)"`
	Priority    *string `json:"priority,omitempty" description:"Low, Medium, or High"`
	Status      *string `json:"status,omitempty" description:"Pending, In Progress, or Completed"`
}

// GetTaskRequest holds parameters for fetching one task.
type GetTaskRequest struct {
	TaskID  string `path:"taskId" description:"Task ID"`
	ActorID string `query:"actor_id" description:"Acting user ID"`
}

// DeleteTaskRequest holds parameters for deleting a task.
type DeleteTaskRequest struct {
	TaskID  string `path:"taskId" description:"Task ID"`
	ActorID string `query:"actor_id" description:"Acting user ID"`
}

// ──────────────────────────────────────────────────
// Permission requests
// ──────────────────────────────────────────────────

// SetPermissionRequest is the body for setting a grant on a task. An empty
// level clears any existing grant.
type SetPermissionRequest struct {
	ActorID string `json:"actor_id" description:"Acting user ID (must be a superuser)"`
	Level   string `json:"level,omitempty" description:"view, edit, or delete; empty clears the grant"`
}

// ListGrantsRequest holds query parameters for listing grants on a task.
type ListGrantsRequest struct {
	TaskID  string `path:"taskId" description:"Task ID"`
	ActorID string `query:"actor_id" description:"Acting user ID"`
	Limit   int    `query:"limit" description:"Maximum results"`
	Offset  int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Audit requests
// ──────────────────────────────────────────────────

// ListAuditRequest holds query parameters for listing decision logs.
type ListAuditRequest struct {
	ActorID      string `query:"actor_id" description:"Acting user ID (must be a superuser)"`
	SubjectID    string `query:"subject_id" description:"Filter by the actor the decision was about"`
	ResourceType string `query:"resource_type" description:"Filter by resource type (task, project)"`
	ResourceID   string `query:"resource_id" description:"Filter by resource ID"`
	Decision     string `query:"decision" description:"Filter by decision code"`
	Limit        int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset       int    `query:"offset" description:"Results to skip"`
}
