package foreman

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/foreman/grant"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/store"
	"github.com/xraph/foreman/task"
)

// CreateTaskInput carries the fields for creating a task. Description,
// DueDate, Priority, and Status all have defaults; ProjectID is optional.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    task.Priority
	Status      task.Status
	ProjectID   *id.ProjectID
}

// UpdateTaskInput carries the mutable fields of a task. Nil fields are left
// unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *task.Priority
	Status      *task.Status
}

// SetPermissionInput carries a permission mutation for one (user, task)
// pair. An empty Level clears any existing grant instead of setting one.
type SetPermissionInput struct {
	TaskID id.TaskID
	UserID id.UserID
	Level  grant.Level
}

// CreateTask creates a task owned by the actor. Standalone tasks need no
// permission; creating inside a project requires the actor to own the
// project, be a superuser, or hold an edit-or-higher grant on some task
// already in that project.
func (s *Service) CreateTask(ctx context.Context, actor Actor, in CreateTaskInput) (*task.Task, error) {
	if in.Title == "" {
		return nil, errors.New("foreman: task title is required")
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, in.Priority)
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}

	now := time.Now().UTC()
	t := &task.Task{
		ID:          id.NewTaskID(),
		Title:       in.Title,
		Description: in.Description,
		DueDate:     now.Truncate(24 * time.Hour),
		Priority:    task.PriorityMedium,
		Status:      task.StatusPending,
		OwnerID:     actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Description == "" {
		t.Description = task.DefaultDescription
	}
	if in.DueDate != nil {
		t.DueDate = *in.DueDate
	}
	if in.Priority != "" {
		t.Priority = in.Priority
	}
	if in.Status != "" {
		t.Status = in.Status
	}
	if in.ProjectID != nil {
		t.ProjectID = *in.ProjectID
	}

	err := s.store().WithinTx(ctx, func(ctx context.Context) error {
		if !t.ProjectID.IsNil() {
			p, err := s.getProject(ctx, t.ProjectID)
			if err != nil {
				return err
			}
			ok, err := s.canCreateInProject(ctx, actor, p.OwnerID, p.ID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: no right to add tasks to project %s", ErrAccessDenied, p.ID)
			}
		}
		if err := s.store().CreateTask(ctx, t); err != nil {
			return fmt.Errorf("foreman: create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.engine.logger.Info("task created", "task", t.ID, "owner", actor.ID, "project", t.ProjectID)
	return t, nil
}

// canCreateInProject applies the project-level creation gate: project owner,
// superuser, or an edit-or-higher grant on any task in the project.
func (s *Service) canCreateInProject(ctx context.Context, actor Actor, ownerID id.UserID, projectID id.ProjectID) (bool, error) {
	if actor.Superuser || ownerID.String() == actor.ID.String() {
		return true, nil
	}
	ok, err := s.store().HasGrantInProject(ctx, actor.ID, projectID, grant.LevelEdit)
	if err != nil {
		return false, fmt.Errorf("foreman: project grant lookup: %w", err)
	}
	return ok, nil
}

// GetTask returns a task with the actor's access flags. View access is
// required; a missing task is reported before any permission outcome.
func (s *Service) GetTask(ctx context.Context, actor Actor, taskID id.TaskID) (*TaskView, error) {
	var view *TaskView
	err := s.store().WithinTx(ctx, func(ctx context.Context) error {
		t, err := s.getTask(ctx, taskID)
		if err != nil {
			return err
		}
		if err := s.engine.EnforceTask(ctx, actor, t, grant.LevelView); err != nil {
			return err
		}
		canEdit, err := s.engine.evaluateTask(ctx, actor, t, grant.LevelEdit)
		if err != nil {
			return fmt.Errorf("foreman: evaluate edit flag: %w", err)
		}
		canDelete, err := s.engine.evaluateTask(ctx, actor, t, grant.LevelDelete)
		if err != nil {
			return fmt.Errorf("foreman: evaluate delete flag: %w", err)
		}
		view = &TaskView{Task: t, CanEdit: canEdit.Allowed, CanDelete: canDelete.Allowed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateTask applies the input to a task. Requires edit access. The
// authorization read and the write run in one critical section so a racing
// grant revocation cannot land between them.
func (s *Service) UpdateTask(ctx context.Context, actor Actor, taskID id.TaskID, in UpdateTaskInput) (*task.Task, error) {
	if in.Priority != nil && !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, *in.Priority)
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *in.Status)
	}

	var updated *task.Task
	err := s.store().WithinTx(ctx, func(ctx context.Context) error {
		t, err := s.getTask(ctx, taskID)
		if err != nil {
			return err
		}
		if err := s.engine.EnforceTask(ctx, actor, t, grant.LevelEdit); err != nil {
			return err
		}

		if in.Title != nil {
			if *in.Title == "" {
				return errors.New("foreman: task title cannot be empty")
			}
			t.Title = *in.Title
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
		if in.DueDate != nil {
			t.DueDate = *in.DueDate
		}
		if in.Priority != nil {
			t.Priority = *in.Priority
		}
		if in.Status != nil {
			t.Status = *in.Status
		}
		t.UpdatedAt = time.Now().UTC()

		if err := s.store().UpdateTask(ctx, t); err != nil {
			return fmt.Errorf("foreman: update task: %w", err)
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes a task and, through the store, every grant on it.
// Requires delete access.
func (s *Service) DeleteTask(ctx context.Context, actor Actor, taskID id.TaskID) error {
	return s.store().WithinTx(ctx, func(ctx context.Context) error {
		t, err := s.getTask(ctx, taskID)
		if err != nil {
			return err
		}
		if err := s.engine.EnforceTask(ctx, actor, t, grant.LevelDelete); err != nil {
			return err
		}
		if err := s.store().DeleteTask(ctx, t.ID); err != nil {
			return fmt.Errorf("foreman: delete task: %w", err)
		}
		s.engine.logger.Info("task deleted", "task", t.ID, "actor", actor.ID)
		return nil
	})
}

// SetPermission upserts or clears the grant for one (user, task) pair. Only
// superusers may call it. Granting to the task's owner is refused because
// the owner already holds implicit access under the fallback policy.
func (s *Service) SetPermission(ctx context.Context, actor Actor, in SetPermissionInput) error {
	if !actor.Superuser {
		return fmt.Errorf("%w: only superusers may manage permissions", ErrAccessDenied)
	}
	if in.Level != "" && !in.Level.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, in.Level)
	}

	return s.store().WithinTx(ctx, func(ctx context.Context) error {
		t, err := s.getTask(ctx, in.TaskID)
		if err != nil {
			return err
		}
		u, err := s.getUser(ctx, in.UserID)
		if err != nil {
			return err
		}

		if in.Level == "" {
			if err := s.store().DeleteGrant(ctx, u.ID, t.ID); err != nil {
				return fmt.Errorf("foreman: clear grant: %w", err)
			}
			s.engine.logger.Info("grant cleared", "task", t.ID, "user", u.ID, "actor", actor.ID)
			return nil
		}

		if t.OwnerID.String() == u.ID.String() {
			return fmt.Errorf("%w: user %s owns task %s", ErrOwnerGrant, u.ID, t.ID)
		}

		now := time.Now().UTC()
		g := &grant.Grant{
			ID:         id.NewGrantID(),
			UserID:     u.ID,
			TaskID:     t.ID,
			Level:      in.Level,
			AssignedBy: actor.ID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.store().UpsertGrant(ctx, g); err != nil {
			return fmt.Errorf("foreman: upsert grant: %w", err)
		}
		s.engine.logger.Info("grant set",
			"task", t.ID, "user", u.ID, "level", in.Level, "actor", actor.ID)
		return nil
	})
}

// getTask translates the store sentinel into the task error kind.
func (s *Service) getTask(ctx context.Context, taskID id.TaskID) (*task.Task, error) {
	t, err := s.store().GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("foreman: get task: %w", err)
	}
	return t, nil
}
