package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/foreman"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/project"
)

func (a *API) registerProjectRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("projects"))

	if err := g.POST("/projects", a.createProject,
		forge.WithSummary("Create project"),
		forge.WithDescription("Creates a project owned by the actor, with a placeholder task."),
		forge.WithOperationID("createProject"),
		forge.WithRequestSchema(CreateProjectRequest{}),
		forge.WithCreatedResponse(&project.Project{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/projects", a.listProjects,
		forge.WithSummary("List visible projects"),
		forge.WithDescription("Lists every project the actor can see, with tasks and access flags."),
		forge.WithOperationID("listProjects"),
		forge.WithRequestSchema(ListProjectsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Visible projects", []*foreman.ProjectView{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/projects/:projectId", a.getProject,
		forge.WithSummary("Get project"),
		forge.WithDescription("Returns one project with tasks and access flags."),
		forge.WithOperationID("getProject"),
		forge.WithResponseSchema(http.StatusOK, "Project details", &foreman.ProjectView{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/projects/:projectId", a.updateProject,
		forge.WithSummary("Update project"),
		forge.WithDescription("Updates a project's fields or assignee set."),
		forge.WithOperationID("updateProject"),
		forge.WithRequestSchema(UpdateProjectRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated project", &project.Project{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/projects/:projectId", a.deleteProject,
		forge.WithSummary("Delete project"),
		forge.WithDescription("Deletes a project and all of its tasks. Owner only."),
		forge.WithOperationID("deleteProject"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createProject(ctx forge.Context, req *CreateProjectRequest) (*project.Project, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	assignees, err := parseUserIDs(req.AssigneeIDs)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid assignee_ids: %v", err))
	}

	in := foreman.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		AssigneeIDs: assignees,
	}
	if req.OwnerID != "" {
		ownerID, err := id.ParseUserID(req.OwnerID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid owner_id: %v", err))
		}
		in.OwnerID = &ownerID
	}

	p, err := a.svc.CreateProject(ctx.Context(), actor, in)
	if err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusCreated, p)
}

func (a *API) listProjects(ctx forge.Context, req *ListProjectsRequest) ([]*foreman.ProjectView, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}

	views, err := a.svc.ListVisible(ctx.Context(), actor)
	if err != nil {
		return nil, mapError(err)
	}

	return views, ctx.JSON(http.StatusOK, views)
}

func (a *API) getProject(ctx forge.Context, req *GetProjectRequest) (*foreman.ProjectView, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	projectID, err := id.ParseProjectID(ctx.Param("projectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid project ID: %v", err))
	}

	view, err := a.svc.GetProject(ctx.Context(), actor, projectID)
	if err != nil {
		return nil, mapError(err)
	}

	return view, ctx.JSON(http.StatusOK, view)
}

func (a *API) updateProject(ctx forge.Context, req *UpdateProjectRequest) (*project.Project, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	projectID, err := id.ParseProjectID(ctx.Param("projectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid project ID: %v", err))
	}

	in := foreman.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.AssigneeIDs != nil {
		assignees, err := parseUserIDs(*req.AssigneeIDs)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid assignee_ids: %v", err))
		}
		in.AssigneeIDs = &assignees
	}

	p, err := a.svc.UpdateProject(ctx.Context(), actor, projectID, in)
	if err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) deleteProject(ctx forge.Context, req *DeleteProjectRequest) (*struct{}, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	projectID, err := id.ParseProjectID(ctx.Param("projectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid project ID: %v", err))
	}

	if err := a.svc.DeleteProject(ctx.Context(), actor, projectID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func parseUserIDs(raw []string) ([]id.UserID, error) {
	ids := make([]id.UserID, 0, len(raw))
	for _, s := range raw {
		uid, err := id.ParseUserID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uid)
	}
	return ids, nil
}
