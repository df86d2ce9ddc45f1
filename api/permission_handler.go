package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/foreman"
	"github.com/xraph/foreman/grant"
	"github.com/xraph/foreman/id"
)

func (a *API) registerPermissionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("permissions"))

	if err := g.PUT("/tasks/:taskId/permissions/:userId", a.setPermission,
		forge.WithSummary("Set task permission"),
		forge.WithDescription("Upserts or clears the grant for a user on a task. Superuser only."),
		forge.WithOperationID("setPermission"),
		forge.WithRequestSchema(SetPermissionRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/tasks/:taskId/permissions/:userId", a.clearPermission,
		forge.WithSummary("Clear task permission"),
		forge.WithDescription("Removes the grant for a user on a task. Superuser only."),
		forge.WithOperationID("clearPermission"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/tasks/:taskId/permissions", a.listPermissions,
		forge.WithSummary("List task permissions"),
		forge.WithDescription("Lists grants on a task. Superuser only."),
		forge.WithOperationID("listPermissions"),
		forge.WithRequestSchema(ListGrantsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Grant list", []*grant.Grant{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) setPermission(ctx forge.Context, req *SetPermissionRequest) (*struct{}, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	taskID, userID, err := permissionParams(ctx)
	if err != nil {
		return nil, err
	}

	err = a.svc.SetPermission(ctx.Context(), actor, foreman.SetPermissionInput{
		TaskID: taskID,
		UserID: userID,
		Level:  grant.Level(req.Level),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) clearPermission(ctx forge.Context, req *SetPermissionRequest) (*struct{}, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	taskID, userID, err := permissionParams(ctx)
	if err != nil {
		return nil, err
	}

	err = a.svc.SetPermission(ctx.Context(), actor, foreman.SetPermissionInput{
		TaskID: taskID,
		UserID: userID,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listPermissions(ctx forge.Context, req *ListGrantsRequest) ([]*grant.Grant, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	if !actor.Superuser {
		return nil, forge.Forbidden("only superusers may list permissions")
	}
	taskID, err := id.ParseTaskID(ctx.Param("taskId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid task ID: %v", err))
	}

	grants, err := a.svc.Engine().Store().ListGrants(ctx.Context(), &grant.ListFilter{
		TaskID: &taskID,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return grants, ctx.JSON(http.StatusOK, grants)
}

func permissionParams(ctx forge.Context) (id.TaskID, id.UserID, error) {
	taskID, err := id.ParseTaskID(ctx.Param("taskId"))
	if err != nil {
		return id.Nil, id.Nil, forge.BadRequest(fmt.Sprintf("invalid task ID: %v", err))
	}
	userID, err := id.ParseUserID(ctx.Param("userId"))
	if err != nil {
		return id.Nil, id.Nil, forge.BadRequest(fmt.Sprintf("invalid user ID: %v", err))
	}
	return taskID, userID, nil
}
