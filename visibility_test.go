package foreman

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/foreman/grant"
	"github.com/xraph/foreman/id"
)

func TestListVisible_SourceAttribution(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	owner := registerUser(t, svc, "alice", false)
	admin := registerUser(t, svc, "root", true)
	assignee := registerUser(t, svc, "bob", false)
	grantee := registerUser(t, svc, "carol", false)
	stranger := registerUser(t, svc, "mallory", false)

	p, err := svc.CreateProject(ctx, owner, CreateProjectInput{
		Name:        "Apollo",
		AssigneeIDs: []id.UserID{assignee.ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	tk, err := svc.CreateTask(ctx, owner, CreateTaskInput{Title: "payload", ProjectID: &p.ID})
	if err != nil {
		t.Fatal(err)
	}
	err = svc.SetPermission(ctx, admin, SetPermissionInput{TaskID: tk.ID, UserID: grantee.ID, Level: grant.LevelView})
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name  string
		actor Actor
		via   VisibilitySource
	}{
		{"owner", owner, SourceOwner},
		{"superuser", admin, SourceAdmin},
		{"assignee", assignee, SourceAssignment},
		{"grantee", grantee, SourceGrant},
	} {
		views, err := svc.ListVisible(ctx, tc.actor)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(views) != 1 {
			t.Fatalf("%s: expected 1 visible project, got %d", tc.name, len(views))
		}
		if views[0].Via != tc.via {
			t.Fatalf("%s: via = %s, want %s", tc.name, views[0].Via, tc.via)
		}
	}

	views, err := svc.ListVisible(ctx, stranger)
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 0 {
		t.Fatalf("stranger should see nothing, got %d projects", len(views))
	}
}

func TestListVisible_OwnerOutranksAssignmentAndGrant(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	admin := registerUser(t, svc, "root", true)
	alice := registerUser(t, svc, "alice", false)
	bob := registerUser(t, svc, "bob", false)

	// Alice owns the project, is assigned to it, and holds a grant on a task
	// in it created by someone else. Ownership wins the attribution.
	p, err := svc.CreateProject(ctx, alice, CreateProjectInput{
		Name:        "Apollo",
		AssigneeIDs: []id.UserID{alice.ID, bob.ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	anchor, err := svc.CreateTask(ctx, alice, CreateTaskInput{Title: "anchor", ProjectID: &p.ID})
	if err != nil {
		t.Fatal(err)
	}
	err = svc.SetPermission(ctx, admin, SetPermissionInput{TaskID: anchor.ID, UserID: bob.ID, Level: grant.LevelEdit})
	if err != nil {
		t.Fatal(err)
	}
	tk, err := svc.CreateTask(ctx, bob, CreateTaskInput{Title: "by bob", ProjectID: &p.ID})
	if err != nil {
		t.Fatal(err)
	}
	err = svc.SetPermission(ctx, admin, SetPermissionInput{TaskID: tk.ID, UserID: alice.ID, Level: grant.LevelView})
	if err != nil {
		t.Fatal(err)
	}

	views, err := svc.ListVisible(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 visible project, got %d", len(views))
	}
	if views[0].Via != SourceOwner {
		t.Fatalf("via = %s, want %s", views[0].Via, SourceOwner)
	}

	// Bob is both assigned and granted; assignment outranks the grant.
	views, err = svc.ListVisible(ctx, bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 visible project, got %d", len(views))
	}
	if views[0].Via != SourceAssignment {
		t.Fatalf("via = %s, want %s", views[0].Via, SourceAssignment)
	}
}

func TestListVisible_TaskFlags(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	owner := registerUser(t, svc, "alice", false)
	admin := registerUser(t, svc, "root", true)
	bob := registerUser(t, svc, "bob", false)

	p, err := svc.CreateProject(ctx, owner, CreateProjectInput{Name: "Apollo"})
	if err != nil {
		t.Fatal(err)
	}
	tk, err := svc.CreateTask(ctx, owner, CreateTaskInput{Title: "payload", ProjectID: &p.ID})
	if err != nil {
		t.Fatal(err)
	}
	err = svc.SetPermission(ctx, admin, SetPermissionInput{TaskID: tk.ID, UserID: bob.ID, Level: grant.LevelEdit})
	if err != nil {
		t.Fatal(err)
	}

	flagsFor := func(actor Actor, taskID id.TaskID) (bool, bool) {
		t.Helper()
		views, err := svc.ListVisible(ctx, actor)
		if err != nil {
			t.Fatal(err)
		}
		for _, v := range views {
			for _, tv := range v.Tasks {
				if tv.Task.ID.String() == taskID.String() {
					return tv.CanEdit, tv.CanDelete
				}
			}
		}
		t.Fatalf("task %s not visible to actor", taskID)
		return false, false
	}

	// Ungranted owner is read-only under the view fallback.
	if canEdit, canDelete := flagsFor(owner, tk.ID); canEdit || canDelete {
		t.Fatalf("owner flags = %v/%v, want false/false", canEdit, canDelete)
	}
	// Bob's edit grant stops short of delete.
	if canEdit, canDelete := flagsFor(bob, tk.ID); !canEdit || canDelete {
		t.Fatalf("grantee flags = %v/%v, want true/false", canEdit, canDelete)
	}
	// Superuser gets everything.
	if canEdit, canDelete := flagsFor(admin, tk.ID); !canEdit || !canDelete {
		t.Fatalf("superuser flags = %v/%v, want true/true", canEdit, canDelete)
	}
}

func TestListVisible_RevokedGrantRemovesProject(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	owner := registerUser(t, svc, "alice", false)
	admin := registerUser(t, svc, "root", true)
	bob := registerUser(t, svc, "bob", false)

	p, err := svc.CreateProject(ctx, owner, CreateProjectInput{Name: "Apollo"})
	if err != nil {
		t.Fatal(err)
	}
	tk, err := svc.CreateTask(ctx, owner, CreateTaskInput{Title: "payload", ProjectID: &p.ID})
	if err != nil {
		t.Fatal(err)
	}
	err = svc.SetPermission(ctx, admin, SetPermissionInput{TaskID: tk.ID, UserID: bob.ID, Level: grant.LevelView})
	if err != nil {
		t.Fatal(err)
	}

	views, err := svc.ListVisible(ctx, bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 visible project, got %d", len(views))
	}

	if err := svc.SetPermission(ctx, admin, SetPermissionInput{TaskID: tk.ID, UserID: bob.ID}); err != nil {
		t.Fatal(err)
	}

	views, err = svc.ListVisible(ctx, bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 0 {
		t.Fatalf("revoked grant should hide the project, got %d views", len(views))
	}
	if _, err := svc.GetProject(ctx, bob, p.ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied after revocation, got %v", err)
	}
}
