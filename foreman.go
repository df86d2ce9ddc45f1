// Package foreman provides project/task tracking with per-task, per-user
// permission grants.
//
// The authorization Engine answers whether an actor may view, edit, or
// delete a task or project: superusers pass everything, explicit grants are
// checked by level implication (delete implies edit implies view), and task
// owners fall back to the configured owner policy. The lifecycle Service
// layers creation, update, and deletion workflows on top, guarding every
// mutation with the engine before touching the store.
//
//	eng, err := foreman.NewEngine(
//	    foreman.WithStore(memStore),
//	)
//	svc := foreman.NewService(eng)
//	views, err := svc.ListVisible(ctx, foreman.Actor{ID: userID})
package foreman

import (
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/user"
)

// Actor is the authenticated caller of an operation. The presentation layer
// resolves identity; foreman only needs the ID and the global-admin flag.
type Actor struct {
	ID        id.UserID `json:"id"`
	Superuser bool      `json:"superuser"`
}

// ActorFromUser builds an Actor from a stored user reference.
func ActorFromUser(u *user.User) Actor {
	return Actor{ID: u.ID, Superuser: u.Superuser}
}

// Decision is the authorization outcome.
type Decision string

const (
	// DecisionAllowSuperuser means the actor's superuser flag granted access.
	DecisionAllowSuperuser Decision = "allow_superuser"

	// DecisionAllowGrant means an explicit grant implied the requested level.
	DecisionAllowGrant Decision = "allow_grant"

	// DecisionAllowOwner means ownership granted access under the configured
	// owner-fallback policy.
	DecisionAllowOwner Decision = "allow_owner"

	// DecisionDenyGrantLevel means a grant exists but its level does not
	// imply the requested one.
	DecisionDenyGrantLevel Decision = "deny_grant_level"

	// DecisionDenyNoGrant means no grant exists and the owner fallback does
	// not apply.
	DecisionDenyNoGrant Decision = "deny_no_grant"

	// DecisionDenyNotOwner means a project operation was attempted by
	// someone other than the owner (or an admin, where admins qualify).
	DecisionDenyNotOwner Decision = "deny_not_owner"
)

// CheckResult is the outcome of an authorization check.
type CheckResult struct {
	Allowed    bool     `json:"allowed"`
	Decision   Decision `json:"decision"`
	Reason     string   `json:"reason,omitempty"`
	EvalTimeNs int64    `json:"eval_time_ns"`
}
