package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/user"
)

func (a *API) registerUserRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("users"))

	if err := g.POST("/users", a.registerUser,
		forge.WithSummary("Register user"),
		forge.WithDescription("Registers a user reference from the identity system."),
		forge.WithOperationID("registerUser"),
		forge.WithRequestSchema(RegisterUserRequest{}),
		forge.WithCreatedResponse(&user.User{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/users", a.listUsers,
		forge.WithSummary("List users"),
		forge.WithDescription("Lists registered users with optional filters."),
		forge.WithOperationID("listUsers"),
		forge.WithRequestSchema(ListUsersRequest{}),
		forge.WithResponseSchema(http.StatusOK, "User list", []*user.User{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) registerUser(ctx forge.Context, req *RegisterUserRequest) (*user.User, error) {
	if req.Username == "" {
		return nil, forge.BadRequest("username is required")
	}

	u := &user.User{
		ID:        id.NewUserID(),
		Username:  req.Username,
		Superuser: req.Superuser,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.svc.RegisterUser(ctx.Context(), u); err != nil {
		return nil, mapError(err)
	}

	return u, ctx.JSON(http.StatusCreated, u)
}

func (a *API) listUsers(ctx forge.Context, req *ListUsersRequest) ([]*user.User, error) {
	filter := &user.ListFilter{
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	users, err := a.svc.Engine().Store().ListUsers(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return users, ctx.JSON(http.StatusOK, users)
}
