package foreman

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/foreman/audit"
	"github.com/xraph/foreman/grant"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/project"
	"github.com/xraph/foreman/store/memory"
	"github.com/xraph/foreman/task"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	eng, err := NewEngine(append([]Option{WithStore(s)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return eng, s
}

func testTask(owner id.UserID) *task.Task {
	now := time.Now().UTC()
	return &task.Task{
		ID:        id.NewTaskID(),
		Title:     "ship the release",
		DueDate:   now,
		Priority:  task.PriorityMedium,
		Status:    task.StatusPending,
		OwnerID:   owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := NewEngine()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestCheckTask_SuperuserBypass(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	admin := Actor{ID: id.NewUserID(), Superuser: true}
	tk := testTask(id.NewUserID())

	for _, level := range []grant.Level{grant.LevelView, grant.LevelEdit, grant.LevelDelete} {
		result, err := eng.CheckTask(ctx, admin, tk, level)
		if err != nil {
			t.Fatal(err)
		}
		if !result.Allowed {
			t.Fatalf("superuser denied %s: %s", level, result.Reason)
		}
		if result.Decision != DecisionAllowSuperuser {
			t.Fatalf("expected %s, got %s", DecisionAllowSuperuser, result.Decision)
		}
	}
}

func TestCheckTask_GrantImplication(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	actor := Actor{ID: id.NewUserID()}
	tk := testTask(id.NewUserID())
	_ = s.CreateGrant(ctx, &grant.Grant{
		ID:     id.NewGrantID(),
		UserID: actor.ID,
		TaskID: tk.ID,
		Level:  grant.LevelEdit,
	})

	// An edit grant implies view and edit but not delete.
	for level, want := range map[grant.Level]bool{
		grant.LevelView:   true,
		grant.LevelEdit:   true,
		grant.LevelDelete: false,
	} {
		result, err := eng.CheckTask(ctx, actor, tk, level)
		if err != nil {
			t.Fatal(err)
		}
		if result.Allowed != want {
			t.Fatalf("level %s: allowed=%v, want %v", level, result.Allowed, want)
		}
	}

	result, _ := eng.CheckTask(ctx, actor, tk, grant.LevelDelete)
	if result.Decision != DecisionDenyGrantLevel {
		t.Fatalf("expected %s, got %s", DecisionDenyGrantLevel, result.Decision)
	}
}

func TestCheckTask_NoGrantDenied(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	stranger := Actor{ID: id.NewUserID()}
	tk := testTask(id.NewUserID())

	result, err := eng.CheckTask(ctx, stranger, tk, grant.LevelView)
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed {
		t.Fatal("expected deny for actor with no grant")
	}
	if result.Decision != DecisionDenyNoGrant {
		t.Fatalf("expected %s, got %s", DecisionDenyNoGrant, result.Decision)
	}
}

func TestCheckTask_OwnerFallbackView(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	owner := Actor{ID: id.NewUserID()}
	tk := testTask(owner.ID)

	result, err := eng.CheckTask(ctx, owner, tk, grant.LevelView)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed || result.Decision != DecisionAllowOwner {
		t.Fatalf("owner view: allowed=%v decision=%s", result.Allowed, result.Decision)
	}

	for _, level := range []grant.Level{grant.LevelEdit, grant.LevelDelete} {
		result, err := eng.CheckTask(ctx, owner, tk, level)
		if err != nil {
			t.Fatal(err)
		}
		if result.Allowed {
			t.Fatalf("ungranted owner allowed %s under view fallback", level)
		}
	}
}

func TestCheckTask_OwnerFallbackFull(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, WithConfig(Config{OwnerFallback: OwnerFallbackFull}))

	owner := Actor{ID: id.NewUserID()}
	tk := testTask(owner.ID)

	for _, level := range []grant.Level{grant.LevelView, grant.LevelEdit, grant.LevelDelete} {
		result, err := eng.CheckTask(ctx, owner, tk, level)
		if err != nil {
			t.Fatal(err)
		}
		if !result.Allowed || result.Decision != DecisionAllowOwner {
			t.Fatalf("owner %s under full fallback: allowed=%v decision=%s", level, result.Allowed, result.Decision)
		}
	}
}

func TestCheckTask_ExplicitGrantOutranksOwnership(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t, WithConfig(Config{OwnerFallback: OwnerFallbackFull}))

	owner := Actor{ID: id.NewUserID()}
	tk := testTask(owner.ID)
	_ = s.CreateGrant(ctx, &grant.Grant{
		ID:     id.NewGrantID(),
		UserID: owner.ID,
		TaskID: tk.ID,
		Level:  grant.LevelView,
	})

	// With an explicit grant present the fallback never applies, even for
	// the owner under the permissive policy.
	result, err := eng.CheckTask(ctx, owner, tk, grant.LevelEdit)
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed {
		t.Fatal("explicit view grant should cap the owner at view")
	}
	if result.Decision != DecisionDenyGrantLevel {
		t.Fatalf("expected %s, got %s", DecisionDenyGrantLevel, result.Decision)
	}
}

func TestCheckTask_InvalidLevel(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.CheckTask(ctx, Actor{ID: id.NewUserID()}, testTask(id.NewUserID()), "admin")
	if !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestCheckProject_DeleteOwnerOnly(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	owner := Actor{ID: id.NewUserID()}
	admin := Actor{ID: id.NewUserID(), Superuser: true}
	p := &project.Project{ID: id.NewProjectID(), Name: "launch", OwnerID: owner.ID}

	result, err := eng.CheckProject(ctx, admin, p, grant.LevelEdit)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed {
		t.Fatal("superuser should be allowed to edit any project")
	}

	result, err = eng.CheckProject(ctx, admin, p, grant.LevelDelete)
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed {
		t.Fatal("superuser should not be allowed to delete another owner's project")
	}
	if result.Decision != DecisionDenyNotOwner {
		t.Fatalf("expected %s, got %s", DecisionDenyNotOwner, result.Decision)
	}

	result, err = eng.CheckProject(ctx, owner, p, grant.LevelDelete)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed {
		t.Fatal("owner should be allowed to delete their project")
	}
}

func TestEnforceTask_WrapsAccessDenied(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	err := eng.EnforceTask(ctx, Actor{ID: id.NewUserID()}, testTask(id.NewUserID()), grant.LevelView)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestCheckTask_RecordsDecisions(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	eng, err := NewEngine(WithStore(s), WithAuditLog(s))
	if err != nil {
		t.Fatal(err)
	}

	actor := Actor{ID: id.NewUserID()}
	tk := testTask(id.NewUserID())
	if _, err := eng.CheckTask(ctx, actor, tk, grant.LevelView); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListEntries(ctx, &audit.QueryFilter{ActorID: &actor.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 decision log entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ResourceType != "task" || e.ResourceID != tk.ID.String() {
		t.Fatalf("entry resource mismatch: %s %s", e.ResourceType, e.ResourceID)
	}
	if e.Decision != string(DecisionDenyNoGrant) {
		t.Fatalf("expected decision %s, got %s", DecisionDenyNoGrant, e.Decision)
	}
}
