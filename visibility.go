package foreman

import (
	"context"
	"fmt"

	"github.com/xraph/foreman/project"
	"github.com/xraph/foreman/store"
)

// VisibleProjectIDs computes the set of projects visible to a non-superuser
// actor, as a map from project ID string to the attribution source. The set
// is the union of three named sources, each queried once:
//
//	owned:    projects the actor owns
//	assigned: projects the actor is in the assignee set of
//	granted:  projects containing a task the actor holds a grant on
//
// Attribution precedence when a project matches several sources is
// owner > assignment > grant, so sources are applied lowest-precedence
// first and overwritten.
func VisibleProjectIDs(ctx context.Context, st store.Store, actor Actor) (map[string]VisibilitySource, error) {
	visible := make(map[string]VisibilitySource)

	granted, err := st.ListGrantedProjectIDs(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("foreman: granted projects: %w", err)
	}
	for _, pid := range granted {
		visible[pid.String()] = SourceGrant
	}

	assigned, err := st.ListProjectIDsForAssignee(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("foreman: assigned projects: %w", err)
	}
	for _, pid := range assigned {
		visible[pid.String()] = SourceAssignment
	}

	owned, err := st.ListProjects(ctx, &project.ListFilter{OwnerID: &actor.ID})
	if err != nil {
		return nil, fmt.Errorf("foreman: owned projects: %w", err)
	}
	for _, p := range owned {
		visible[p.ID.String()] = SourceOwner
	}

	return visible, nil
}
