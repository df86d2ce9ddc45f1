package foreman

import (
	"github.com/xraph/foreman/project"
	"github.com/xraph/foreman/task"
)

// VisibilitySource names how a project became visible to an actor. When a
// project matches several sources, attribution precedence is
// owner > assignment > grant.
type VisibilitySource string

const (
	// SourceAdmin marks projects visible through the superuser bypass.
	SourceAdmin VisibilitySource = "admin"

	// SourceOwner marks projects the actor owns.
	SourceOwner VisibilitySource = "owner"

	// SourceAssignment marks projects the actor is assigned to.
	SourceAssignment VisibilitySource = "assignment"

	// SourceGrant marks projects containing a task the actor holds a grant
	// on.
	SourceGrant VisibilitySource = "grant"
)

// TaskView is a task annotated with the actor's computed access flags.
type TaskView struct {
	Task      *task.Task `json:"task"`
	CanEdit   bool       `json:"can_edit"`
	CanDelete bool       `json:"can_delete"`
}

// ProjectView is a project with its visible tasks and the visibility
// attribution for the requesting actor.
type ProjectView struct {
	Project *project.Project `json:"project"`
	Via     VisibilitySource `json:"via"`
	Tasks   []TaskView       `json:"tasks"`
}
