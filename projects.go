package foreman

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xraph/foreman/grant"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/project"
	"github.com/xraph/foreman/store"
	"github.com/xraph/foreman/task"
)

// Placeholder task values used when a project is created, so a new project
// never renders empty.
const (
	placeholderTitlePrefix = "Initial task for "
	placeholderTaskDesc    = "Placeholder task - edit or delete as needed"
)

// CreateProjectInput carries the fields for creating a project. OwnerID is
// honored only when the actor is a superuser; everyone else owns what they
// create.
type CreateProjectInput struct {
	Name        string
	Description string
	OwnerID     *id.UserID
	AssigneeIDs []id.UserID
}

// UpdateProjectInput carries the mutable fields of a project. Nil fields are
// left unchanged. AssigneeIDs replaces the full set and is honored only for
// superusers; the owner is always re-added when omitted.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	AssigneeIDs *[]id.UserID
}

// CreateProject creates a project together with a placeholder task so the
// project starts non-empty. Any authenticated actor may create projects. The
// owner always ends up in the assignee set.
func (s *Service) CreateProject(ctx context.Context, actor Actor, in CreateProjectInput) (*project.Project, error) {
	if in.Name == "" {
		return nil, errors.New("foreman: project name is required")
	}

	ownerID := actor.ID
	if in.OwnerID != nil && actor.Superuser {
		ownerID = *in.OwnerID
	}

	now := time.Now().UTC()
	p := &project.Project{
		ID:          id.NewProjectID(),
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	placeholder := &task.Task{
		ID:          id.NewTaskID(),
		Title:       placeholderTitlePrefix + in.Name,
		Description: placeholderTaskDesc,
		DueDate:     now.Truncate(24 * time.Hour),
		Priority:    task.PriorityLow,
		Status:      task.StatusPending,
		OwnerID:     ownerID,
		ProjectID:   p.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store().WithinTx(ctx, func(ctx context.Context) error {
		if ownerID.String() != actor.ID.String() {
			if _, err := s.getUser(ctx, ownerID); err != nil {
				return err
			}
		}
		assignees := make([]id.UserID, 0, len(in.AssigneeIDs)+1)
		for _, uid := range in.AssigneeIDs {
			if _, err := s.getUser(ctx, uid); err != nil {
				return err
			}
			assignees = appendAssignee(assignees, uid)
		}
		p.AssigneeIDs = appendAssignee(assignees, ownerID)

		if err := s.store().CreateProject(ctx, p); err != nil {
			return fmt.Errorf("foreman: create project: %w", err)
		}
		if err := s.store().CreateTask(ctx, placeholder); err != nil {
			return fmt.Errorf("foreman: create placeholder task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.engine.logger.Info("project created",
		"project", p.ID, "owner", ownerID, "assignees", len(p.AssigneeIDs))
	return p, nil
}

// GetProject returns a single project as the actor sees it: the project with
// its tasks and per-task access flags. Actors with no visibility source for
// the project receive ErrAccessDenied; a missing project is reported before
// any permission outcome.
func (s *Service) GetProject(ctx context.Context, actor Actor, projectID id.ProjectID) (*ProjectView, error) {
	var view *ProjectView
	err := s.store().WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.getProject(ctx, projectID)
		if err != nil {
			return err
		}
		via, err := s.visibilityFor(ctx, actor, p)
		if err != nil {
			return err
		}
		if via == "" {
			return fmt.Errorf("%w: no visibility source for project %s", ErrAccessDenied, projectID)
		}
		view, err = s.buildProjectView(ctx, actor, p, via)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateProject applies the input to a project. Requires edit access, which
// the engine resolves to owner-or-superuser.
func (s *Service) UpdateProject(ctx context.Context, actor Actor, projectID id.ProjectID, in UpdateProjectInput) (*project.Project, error) {
	var updated *project.Project
	err := s.store().WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.getProject(ctx, projectID)
		if err != nil {
			return err
		}
		if err := s.engine.EnforceProject(ctx, actor, p, grant.LevelEdit); err != nil {
			return err
		}

		if in.Name != nil {
			if *in.Name == "" {
				return errors.New("foreman: project name cannot be empty")
			}
			p.Name = *in.Name
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		p.UpdatedAt = time.Now().UTC()

		if err := s.store().UpdateProject(ctx, p); err != nil {
			return fmt.Errorf("foreman: update project: %w", err)
		}

		switch {
		case in.AssigneeIDs != nil && actor.Superuser:
			set := make([]id.UserID, 0, len(*in.AssigneeIDs)+1)
			for _, uid := range *in.AssigneeIDs {
				if _, err := s.getUser(ctx, uid); err != nil {
					return err
				}
				set = appendAssignee(set, uid)
			}
			set = appendAssignee(set, p.OwnerID)
			if err := s.store().SetAssignees(ctx, p.ID, set); err != nil {
				return fmt.Errorf("foreman: set assignees: %w", err)
			}
			p.AssigneeIDs = set
		case !p.HasAssignee(p.OwnerID):
			// A non-admin owner cannot replace the set but always stays in it.
			set := appendAssignee(p.AssigneeIDs, p.OwnerID)
			if err := s.store().SetAssignees(ctx, p.ID, set); err != nil {
				return fmt.Errorf("foreman: set assignees: %w", err)
			}
			p.AssigneeIDs = set
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProject removes a project and, through the store, every task in it
// and every grant on those tasks. Only the owner may delete; the superuser
// bypass does not apply here.
func (s *Service) DeleteProject(ctx context.Context, actor Actor, projectID id.ProjectID) error {
	return s.store().WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.getProject(ctx, projectID)
		if err != nil {
			return err
		}
		if err := s.engine.EnforceProject(ctx, actor, p, grant.LevelDelete); err != nil {
			return err
		}
		if err := s.store().DeleteProject(ctx, p.ID); err != nil {
			return fmt.Errorf("foreman: delete project: %w", err)
		}
		s.engine.logger.Info("project deleted", "project", p.ID, "actor", actor.ID)
		return nil
	})
}

// ListVisible returns every project the actor can see, each with its tasks
// and per-task can_edit/can_delete flags. Superusers see all projects via
// the admin source; everyone else sees the union of owned, assigned, and
// granted projects with owner > assignment > grant attribution.
func (s *Service) ListVisible(ctx context.Context, actor Actor) ([]*ProjectView, error) {
	var views []*ProjectView
	err := s.store().WithinTx(ctx, func(ctx context.Context) error {
		if actor.Superuser {
			all, err := s.store().ListProjects(ctx, &project.ListFilter{})
			if err != nil {
				return fmt.Errorf("foreman: list projects: %w", err)
			}
			for _, p := range all {
				v, err := s.buildProjectView(ctx, actor, p, SourceAdmin)
				if err != nil {
					return err
				}
				views = append(views, v)
			}
			return nil
		}

		visible, err := VisibleProjectIDs(ctx, s.store(), actor)
		if err != nil {
			return err
		}
		for pidStr, via := range visible {
			pid, err := id.ParseProjectID(pidStr)
			if err != nil {
				return fmt.Errorf("foreman: corrupt project id %q: %w", pidStr, err)
			}
			p, err := s.getProject(ctx, pid)
			if err != nil {
				return err
			}
			v, err := s.buildProjectView(ctx, actor, p, via)
			if err != nil {
				return err
			}
			views = append(views, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortProjectViews(views)
	return views, nil
}

// visibilityFor returns the attribution source for one project, or "" when
// the actor has none.
func (s *Service) visibilityFor(ctx context.Context, actor Actor, p *project.Project) (VisibilitySource, error) {
	if actor.Superuser {
		return SourceAdmin, nil
	}
	if p.OwnerID.String() == actor.ID.String() {
		return SourceOwner, nil
	}
	if p.HasAssignee(actor.ID) {
		return SourceAssignment, nil
	}
	ok, err := s.store().HasGrantInProject(ctx, actor.ID, p.ID, grant.LevelView)
	if err != nil {
		return "", fmt.Errorf("foreman: grant visibility: %w", err)
	}
	if ok {
		return SourceGrant, nil
	}
	return "", nil
}

// buildProjectView assembles a project with its tasks and the actor's
// computed flags. Flag evaluation bypasses decision recording so a listing
// does not flood the audit log.
func (s *Service) buildProjectView(ctx context.Context, actor Actor, p *project.Project, via VisibilitySource) (*ProjectView, error) {
	tasks, err := s.store().ListTasks(ctx, &task.ListFilter{ProjectID: &p.ID})
	if err != nil {
		return nil, fmt.Errorf("foreman: list tasks: %w", err)
	}

	view := &ProjectView{Project: p, Via: via, Tasks: make([]TaskView, 0, len(tasks))}
	for _, t := range tasks {
		canEdit, err := s.engine.evaluateTask(ctx, actor, t, grant.LevelEdit)
		if err != nil {
			return nil, fmt.Errorf("foreman: evaluate edit flag: %w", err)
		}
		canDelete, err := s.engine.evaluateTask(ctx, actor, t, grant.LevelDelete)
		if err != nil {
			return nil, fmt.Errorf("foreman: evaluate delete flag: %w", err)
		}
		view.Tasks = append(view.Tasks, TaskView{
			Task:      t,
			CanEdit:   canEdit.Allowed,
			CanDelete: canDelete.Allowed,
		})
	}
	return view, nil
}

// sortProjectViews orders views newest project first, ID as tiebreaker, so
// listings are stable regardless of source-set iteration order.
func sortProjectViews(views []*ProjectView) {
	sort.Slice(views, func(i, j int) bool {
		a, b := views[i].Project, views[j].Project
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

// appendAssignee adds uid to the set when absent, preserving order.
func appendAssignee(set []id.UserID, uid id.UserID) []id.UserID {
	for _, existing := range set {
		if existing.String() == uid.String() {
			return set
		}
	}
	return append(set, uid)
}

// getProject translates the store sentinel into the project error kind.
func (s *Service) getProject(ctx context.Context, projectID id.ProjectID) (*project.Project, error) {
	p, err := s.store().GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return nil, fmt.Errorf("foreman: get project: %w", err)
	}
	return p, nil
}
