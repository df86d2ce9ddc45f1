package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/xraph/foreman"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/store"
)

// mapError maps domain errors to Forge HTTP errors. Not-found outranks
// forbidden: the service looks entities up before enforcing, so a missing
// resource is reported as 404 regardless of the caller's rights.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, foreman.ErrOwnerGrant) ||
		errors.Is(err, foreman.ErrInvalidLevel) ||
		errors.Is(err, foreman.ErrInvalidPriority) ||
		errors.Is(err, foreman.ErrInvalidStatus) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, foreman.ErrDuplicateGrant) || errors.Is(err, store.ErrDuplicate) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, foreman.ErrAccessDenied) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, foreman.ErrUserNotFound) ||
		errors.Is(err, foreman.ErrProjectNotFound) ||
		errors.Is(err, foreman.ErrTaskNotFound) ||
		errors.Is(err, foreman.ErrGrantNotFound) ||
		errors.Is(err, store.ErrNotFound)
}

// resolveActor parses an actor ID string and loads the matching actor.
func (a *API) resolveActor(ctx forge.Context, actorID string) (foreman.Actor, error) {
	if actorID == "" {
		return foreman.Actor{}, forge.BadRequest("actor_id is required")
	}
	uid, err := id.ParseUserID(actorID)
	if err != nil {
		return foreman.Actor{}, forge.BadRequest("invalid actor_id: " + err.Error())
	}
	actor, err := a.svc.ResolveActor(ctx.Context(), uid)
	if err != nil {
		return foreman.Actor{}, mapError(err)
	}
	return actor, nil
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
