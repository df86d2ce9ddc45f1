package foreman

import "errors"

var (
	// ErrAccessDenied is returned when an authorization check fails.
	ErrAccessDenied = errors.New("foreman: access denied")

	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("foreman: user not found")

	// ErrProjectNotFound is returned when a project cannot be found.
	ErrProjectNotFound = errors.New("foreman: project not found")

	// ErrTaskNotFound is returned when a task cannot be found.
	ErrTaskNotFound = errors.New("foreman: task not found")

	// ErrGrantNotFound is returned when a grant cannot be found.
	ErrGrantNotFound = errors.New("foreman: grant not found")

	// ErrOwnerGrant is returned when trying to grant a permission to the
	// task's owner, who already holds implicit access.
	ErrOwnerGrant = errors.New("foreman: cannot grant permission to task owner")

	// ErrInvalidLevel is returned for a malformed permission level.
	ErrInvalidLevel = errors.New("foreman: invalid permission level")

	// ErrInvalidPriority is returned for a malformed task priority.
	ErrInvalidPriority = errors.New("foreman: invalid task priority")

	// ErrInvalidStatus is returned for a malformed task status.
	ErrInvalidStatus = errors.New("foreman: invalid task status")

	// ErrDuplicateGrant is returned when a strict grant insert races an
	// existing grant for the same user and task.
	ErrDuplicateGrant = errors.New("foreman: grant already exists for user and task")
)
