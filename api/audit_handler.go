package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/foreman/audit"
	"github.com/xraph/foreman/id"
)

func (a *API) registerAuditRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("audit"))

	return g.GET("/audit", a.listAudit,
		forge.WithSummary("List decision logs"),
		forge.WithDescription("Lists recorded authorization decisions, newest first. Superuser only."),
		forge.WithOperationID("listAudit"),
		forge.WithRequestSchema(ListAuditRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Decision log entries", []*audit.Entry{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listAudit(ctx forge.Context, req *ListAuditRequest) ([]*audit.Entry, error) {
	actor, err := a.resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	if !actor.Superuser {
		return nil, forge.Forbidden("only superusers may read the decision log")
	}

	filter := &audit.QueryFilter{
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Decision:     req.Decision,
		Limit:        defaultLimit(req.Limit),
		Offset:       req.Offset,
	}
	if req.SubjectID != "" {
		uid, err := id.ParseUserID(req.SubjectID)
		if err != nil {
			return nil, forge.BadRequest("invalid subject_id: " + err.Error())
		}
		filter.ActorID = &uid
	}

	entries, err := a.svc.Engine().Store().ListEntries(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return entries, ctx.JSON(http.StatusOK, entries)
}
