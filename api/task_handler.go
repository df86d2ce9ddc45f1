package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/foreman"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/task"
)

func (a *API) registerTaskRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("tasks"))

	if err := g.POST("/tasks", a.createTask,
		forge.WithSummary("Create task"),
		forge.WithDescription("Creates a task owned by the actor, optionally inside a project."),
		forge.WithOperationID("createTask"),
		forge.WithRequestSchema(CreateTaskRequest{}),
		forge.WithCreatedResponse(&task.Task{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/tasks/:taskId", a.getTask,
		forge.WithSummary("Get task"),
		forge.WithDescription("Returns a task with the actor's access flags."),
		forge.WithOperationID("getTask"),
		forge.WithResponseSchema(http.StatusOK, "Task details", &foreman.TaskView{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/tasks/:taskId", a.updateTask,
		forge.WithSummary("Update task"),
		forge.WithDescription("Updates a task. Requires edit access."),
		forge.WithOperationID("updateTask"),
		forge.WithRequestSchema(UpdateTaskRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated task", &task.Task{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/tasks/:taskId", a.deleteTask,
		forge.WithSummary("Delete task"),
		forge.WithDescription("Deletes a task and its grants. Requires delete access."),
		forge.WithOperationID("deleteTask"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createTask(ctx forge.Context, req *CreateTaskRequest) (*task.Task, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, forge.BadRequest("title is required")
	}

	in := foreman.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    task.Priority(req.Priority),
		Status:      task.Status(req.Status),
	}
	if req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid due_date: %v", err))
		}
		in.DueDate = &due
	}
	if req.ProjectID != "" {
		pid, err := id.ParseProjectID(req.ProjectID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid project_id: %v", err))
		}
		in.ProjectID = &pid
	}

	t, err := a.svc.CreateTask(ctx.Context(), actor, in)
	if err != nil {
		return nil, mapError(err)
	}

	return t, ctx.JSON(http.StatusCreated, t)
}

func (a *API) getTask(ctx forge.Context, req *GetTaskRequest) (*foreman.TaskView, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	taskID, err := id.ParseTaskID(ctx.Param("taskId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid task ID: %v", err))
	}

	view, err := a.svc.GetTask(ctx.Context(), actor, taskID)
	if err != nil {
		return nil, mapError(err)
	}

	return view, ctx.JSON(http.StatusOK, view)
}

func (a *API) updateTask(ctx forge.Context, req *UpdateTaskRequest) (*task.Task, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	taskID, err := id.ParseTaskID(ctx.Param("taskId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid task ID: %v", err))
	}

	in := foreman.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid due_date: %v", err))
		}
		in.DueDate = &due
	}
	if req.Priority != nil {
		p := task.Priority(*req.Priority)
		in.Priority = &p
	}
	if req.Status != nil {
		st := task.Status(*req.Status)
		in.Status = &st
	}

	t, err := a.svc.UpdateTask(ctx.Context(), actor, taskID, in)
	if err != nil {
		return nil, mapError(err)
	}

	return t, ctx.JSON(http.StatusOK, t)
}

func (a *API) deleteTask(ctx forge.Context, req *DeleteTaskRequest) (*struct{}, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	taskID, err := id.ParseTaskID(ctx.Param("taskId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid task ID: %v", err))
	}

	if err := a.svc.DeleteTask(ctx.Context(), actor, taskID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
