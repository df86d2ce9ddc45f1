package grant

import (
	"context"

	"github.com/xraph/foreman/id"
)

// Store defines persistence operations for permission grants.
//
// The (user_id, task_id) pair is unique at the storage layer, not only in
// application logic, so racing upserts collapse to a single surviving row.
type Store interface {
	// CreateGrant persists a new grant. Returns a duplicate error if a grant
	// for the same (user, task) pair already exists.
	CreateGrant(ctx context.Context, g *Grant) error

	// UpsertGrant creates the grant or, if one exists for the same
	// (user, task) pair, replaces its level and assigned_by.
	UpsertGrant(ctx context.Context, g *Grant) error

	// FindGrant looks up the grant for a (user, task) pair. The boolean is
	// false when no grant exists; absence is not an error.
	FindGrant(ctx context.Context, userID id.UserID, taskID id.TaskID) (*Grant, bool, error)

	// DeleteGrant removes the grant for a (user, task) pair. Removing an
	// absent grant is a no-op.
	DeleteGrant(ctx context.Context, userID id.UserID, taskID id.TaskID) error

	// ListGrants returns grants matching the filter.
	ListGrants(ctx context.Context, filter *ListFilter) ([]*Grant, error)

	// DeleteGrantsByTask removes all grants for a task.
	DeleteGrantsByTask(ctx context.Context, taskID id.TaskID) error

	// HasGrantInProject reports whether the user holds a grant of at least
	// min level on any task within the project.
	HasGrantInProject(ctx context.Context, userID id.UserID, projectID id.ProjectID, min Level) (bool, error)

	// ListGrantedProjectIDs returns the IDs of projects containing at least
	// one task the user holds a grant on.
	ListGrantedProjectIDs(ctx context.Context, userID id.UserID) ([]id.ProjectID, error)
}
