package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/foreman/audit"
	"github.com/xraph/foreman/grant"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/project"
	"github.com/xraph/foreman/store"
	"github.com/xraph/foreman/task"
	"github.com/xraph/foreman/user"
)

func seedUser(t *testing.T, s *Store, name string) *user.User {
	t.Helper()
	u := &user.User{ID: id.NewUserID(), Username: name, CreatedAt: time.Now().UTC()}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func seedProject(t *testing.T, s *Store, owner id.UserID, name string) *project.Project {
	t.Helper()
	now := time.Now().UTC()
	p := &project.Project{ID: id.NewProjectID(), Name: name, OwnerID: owner, CreatedAt: now, UpdatedAt: now}
	if err := s.CreateProject(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func seedTask(t *testing.T, s *Store, owner id.UserID, projectID id.ProjectID, title string, due time.Time, prio task.Priority) *task.Task {
	t.Helper()
	now := time.Now().UTC()
	tk := &task.Task{
		ID:        id.NewTaskID(),
		Title:     title,
		DueDate:   due,
		Priority:  prio,
		Status:    task.StatusPending,
		OwnerID:   owner,
		ProjectID: projectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateTask(context.Background(), tk); err != nil {
		t.Fatal(err)
	}
	return tk
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := New()
	seedUser(t, s, "alice")

	err := s.CreateUser(context.Background(), &user.User{ID: id.NewUserID(), Username: "alice"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := New()
	_, err := s.GetUser(context.Background(), id.NewUserID())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTasks_Ordering(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := seedUser(t, s, "alice")
	p := seedProject(t, s, owner.ID, "Apollo")

	day := 24 * time.Hour
	today := time.Now().UTC().Truncate(day)
	late := seedTask(t, s, owner.ID, p.ID, "late low", today.Add(2*day), task.PriorityLow)
	soonLow := seedTask(t, s, owner.ID, p.ID, "soon low", today, task.PriorityLow)
	soonHigh := seedTask(t, s, owner.ID, p.ID, "soon high", today, task.PriorityHigh)

	tasks, err := s.ListTasks(ctx, &task.ListFilter{ProjectID: &p.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	// Earliest due date first, then priority high to low.
	want := []string{soonHigh.ID.String(), soonLow.ID.String(), late.ID.String()}
	for i, w := range want {
		if tasks[i].ID.String() != w {
			t.Fatalf("position %d: got %q, want %q", i, tasks[i].Title, w)
		}
	}
}

func TestListTasks_Filters(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	p := seedProject(t, s, alice.ID, "Apollo")

	now := time.Now().UTC()
	seedTask(t, s, alice.ID, p.ID, "write report", now, task.PriorityHigh)
	seedTask(t, s, bob.ID, p.ID, "review report", now, task.PriorityLow)
	seedTask(t, s, bob.ID, id.Nil, "standalone", now, task.PriorityLow)

	byOwner, err := s.ListTasks(ctx, &task.ListFilter{OwnerID: &bob.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(byOwner) != 2 {
		t.Fatalf("owner filter: got %d, want 2", len(byOwner))
	}

	bySearch, err := s.ListTasks(ctx, &task.ListFilter{Search: "REPORT"})
	if err != nil {
		t.Fatal(err)
	}
	if len(bySearch) != 2 {
		t.Fatalf("search filter: got %d, want 2", len(bySearch))
	}

	paged, err := s.ListTasks(ctx, &task.ListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(paged) != 1 {
		t.Fatalf("pagination: got %d, want 1", len(paged))
	}
}

func TestCreateGrant_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	p := seedProject(t, s, alice.ID, "Apollo")
	tk := seedTask(t, s, alice.ID, p.ID, "shared", time.Now().UTC(), task.PriorityMedium)

	g := &grant.Grant{ID: id.NewGrantID(), UserID: bob.ID, TaskID: tk.ID, Level: grant.LevelView}
	if err := s.CreateGrant(ctx, g); err != nil {
		t.Fatal(err)
	}

	dup := &grant.Grant{ID: id.NewGrantID(), UserID: bob.ID, TaskID: tk.ID, Level: grant.LevelEdit}
	if err := s.CreateGrant(ctx, dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUpsertGrant_PreservesIdentity(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	p := seedProject(t, s, alice.ID, "Apollo")
	tk := seedTask(t, s, alice.ID, p.ID, "shared", time.Now().UTC(), task.PriorityMedium)

	first := &grant.Grant{ID: id.NewGrantID(), UserID: bob.ID, TaskID: tk.ID, Level: grant.LevelView}
	if err := s.UpsertGrant(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := &grant.Grant{ID: id.NewGrantID(), UserID: bob.ID, TaskID: tk.ID, Level: grant.LevelDelete}
	if err := s.UpsertGrant(ctx, second); err != nil {
		t.Fatal(err)
	}

	if second.ID.String() != first.ID.String() {
		t.Fatal("upsert should report the surviving row's identity")
	}
	got, found, err := s.FindGrant(ctx, bob.ID, tk.ID)
	if err != nil || !found {
		t.Fatalf("find after upsert: found=%v err=%v", found, err)
	}
	if got.Level != grant.LevelDelete {
		t.Fatalf("level = %s, want %s", got.Level, grant.LevelDelete)
	}
}

func TestUpsertGrant_ConcurrentSingleRow(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	p := seedProject(t, s, alice.ID, "Apollo")
	tk := seedTask(t, s, alice.ID, p.ID, "contested", time.Now().UTC(), task.PriorityMedium)

	levels := []grant.Level{grant.LevelView, grant.LevelEdit, grant.LevelDelete}
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(level grant.Level) {
			defer wg.Done()
			g := &grant.Grant{ID: id.NewGrantID(), UserID: bob.ID, TaskID: tk.ID, Level: level}
			if err := s.UpsertGrant(ctx, g); err != nil {
				t.Error(err)
			}
		}(levels[i%len(levels)])
	}
	wg.Wait()

	grants, err := s.ListGrants(ctx, &grant.ListFilter{TaskID: &tk.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected a single grant for the pair, got %d", len(grants))
	}
}

func TestDeleteGrant_AbsentIsNoop(t *testing.T) {
	s := New()
	if err := s.DeleteGrant(context.Background(), id.NewUserID(), id.NewTaskID()); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteProject_Cascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	p := seedProject(t, s, alice.ID, "Apollo")
	other := seedProject(t, s, alice.ID, "Gemini")

	inP := seedTask(t, s, alice.ID, p.ID, "in apollo", time.Now().UTC(), task.PriorityMedium)
	inOther := seedTask(t, s, alice.ID, other.ID, "in gemini", time.Now().UTC(), task.PriorityMedium)
	_ = s.CreateGrant(ctx, &grant.Grant{ID: id.NewGrantID(), UserID: bob.ID, TaskID: inP.ID, Level: grant.LevelView})
	_ = s.CreateGrant(ctx, &grant.Grant{ID: id.NewGrantID(), UserID: bob.ID, TaskID: inOther.ID, Level: grant.LevelView})

	if err := s.DeleteProject(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetTask(ctx, inP.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("task in deleted project should be gone, got %v", err)
	}
	if _, found, _ := s.FindGrant(ctx, bob.ID, inP.ID); found {
		t.Fatal("grant on deleted task should be gone")
	}

	// The sibling project is untouched.
	if _, err := s.GetTask(ctx, inOther.ID); err != nil {
		t.Fatalf("task in other project should survive: %v", err)
	}
	if _, found, _ := s.FindGrant(ctx, bob.ID, inOther.ID); !found {
		t.Fatal("grant in other project should survive")
	}
}

func TestSetAssignees_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	p := seedProject(t, s, alice.ID, "Apollo")

	if err := s.SetAssignees(ctx, p.ID, []id.UserID{bob.ID}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.AssigneeIDs) != 1 || got.AssigneeIDs[0].String() != bob.ID.String() {
		t.Fatalf("assignees = %v", got.AssigneeIDs)
	}

	pids, err := s.ListProjectIDsForAssignee(ctx, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pids) != 1 || pids[0].String() != p.ID.String() {
		t.Fatalf("assignee projects = %v", pids)
	}
}

func TestHasGrantInProject_Implication(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	p := seedProject(t, s, alice.ID, "Apollo")
	tk := seedTask(t, s, alice.ID, p.ID, "shared", time.Now().UTC(), task.PriorityMedium)
	_ = s.CreateGrant(ctx, &grant.Grant{ID: id.NewGrantID(), UserID: bob.ID, TaskID: tk.ID, Level: grant.LevelEdit})

	ok, err := s.HasGrantInProject(ctx, bob.ID, p.ID, grant.LevelView)
	if err != nil || !ok {
		t.Fatalf("edit grant should satisfy view: ok=%v err=%v", ok, err)
	}
	ok, err = s.HasGrantInProject(ctx, bob.ID, p.ID, grant.LevelDelete)
	if err != nil || ok {
		t.Fatalf("edit grant should not satisfy delete: ok=%v err=%v", ok, err)
	}
}

func TestListGrantedProjectIDs_Dedupes(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	p := seedProject(t, s, alice.ID, "Apollo")
	t1 := seedTask(t, s, alice.ID, p.ID, "one", time.Now().UTC(), task.PriorityMedium)
	t2 := seedTask(t, s, alice.ID, p.ID, "two", time.Now().UTC(), task.PriorityMedium)
	standalone := seedTask(t, s, alice.ID, id.Nil, "free", time.Now().UTC(), task.PriorityMedium)
	_ = s.CreateGrant(ctx, &grant.Grant{ID: id.NewGrantID(), UserID: bob.ID, TaskID: t1.ID, Level: grant.LevelView})
	_ = s.CreateGrant(ctx, &grant.Grant{ID: id.NewGrantID(), UserID: bob.ID, TaskID: t2.ID, Level: grant.LevelView})
	_ = s.CreateGrant(ctx, &grant.Grant{ID: id.NewGrantID(), UserID: bob.ID, TaskID: standalone.ID, Level: grant.LevelView})

	pids, err := s.ListGrantedProjectIDs(ctx, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pids) != 1 || pids[0].String() != p.ID.String() {
		t.Fatalf("granted projects = %v, want just %s", pids, p.ID)
	}
}

func TestListEntries_NewestFirstAndPurge(t *testing.T) {
	ctx := context.Background()
	s := New()
	actor := id.NewUserID()

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		e := &audit.Entry{
			ID:        id.NewDecisionID(),
			ActorID:   actor,
			Action:    "view",
			Decision:  "allow_grant",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.ListEntries(ctx, &audit.QueryFilter{ActorID: &actor})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Fatal("entries should be newest first")
		}
	}

	purged, err := s.PurgeEntries(ctx, base.Add(90*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if purged != 2 {
		t.Fatalf("purged = %d, want 2", purged)
	}
	remaining, err := s.ListEntries(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", len(remaining))
	}
}
