// Package memory provides an in-memory implementation of the foreman
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/foreman/audit"
	"github.com/xraph/foreman/grant"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/project"
	"github.com/xraph/foreman/store"
	"github.com/xraph/foreman/task"
	"github.com/xraph/foreman/user"
)

// Compile-time interface checks.
var (
	_ user.Store    = (*Store)(nil)
	_ project.Store = (*Store)(nil)
	_ task.Store    = (*Store)(nil)
	_ grant.Store   = (*Store)(nil)
	_ audit.Store   = (*Store)(nil)
	_ store.Store   = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all foreman entities.
type Store struct {
	mu sync.RWMutex

	// txMu serializes WithinTx critical sections. It is separate from mu so
	// the data lock is never held across a whole section.
	txMu sync.Mutex

	users     map[string]*user.User
	projects  map[string]*project.Project
	assignees map[string][]id.UserID // projectID -> assignee set
	tasks     map[string]*task.Task
	grants    map[string]*grant.Grant // (userID, taskID) pair key
	decisions map[string]*audit.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		users:     make(map[string]*user.User),
		projects:  make(map[string]*project.Project),
		assignees: make(map[string][]id.UserID),
		tasks:     make(map[string]*task.Task),
		grants:    make(map[string]*grant.Grant),
		decisions: make(map[string]*audit.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// WithinTx runs fn while holding the section mutex, so two sections never
// interleave. Sections must not nest.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

// ──────────────────────────────────────────────────
// User Store
// ──────────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID.String()]; ok {
		return fmt.Errorf("user %s: %w", u.ID, store.ErrDuplicate)
	}
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("username %q: %w", u.Username, store.ErrDuplicate)
		}
	}
	s.users[u.ID.String()] = copyUser(u)
	return nil
}

func (s *Store) GetUser(_ context.Context, userID id.UserID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID.String()]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("username %q: %w", username, store.ErrNotFound)
}

func (s *Store) ListUsers(_ context.Context, filter *user.ListFilter) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*user.User, 0, len(s.users))
	for _, u := range s.users {
		if filter != nil {
			if filter.Superuser != nil && u.Superuser != *filter.Superuser {
				continue
			}
			if filter.Search != "" && !containsFold(u.Username, filter.Search) {
				continue
			}
		}
		result = append(result, copyUser(u))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return applyPagination(result, paginationUser(filter)), nil
}

// ──────────────────────────────────────────────────
// Project Store
// ──────────────────────────────────────────────────

func (s *Store) CreateProject(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID.String()]; ok {
		return fmt.Errorf("project %s: %w", p.ID, store.ErrDuplicate)
	}
	s.projects[p.ID.String()] = copyProject(p)
	s.assignees[p.ID.String()] = copyIDs(p.AssigneeIDs)
	return nil
}

func (s *Store) GetProject(_ context.Context, projectID id.ProjectID) (*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID.String()]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, store.ErrNotFound)
	}
	c := copyProject(p)
	c.AssigneeIDs = copyIDs(s.assignees[projectID.String()])
	return c, nil
}

func (s *Store) UpdateProject(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID.String()]; !ok {
		return fmt.Errorf("project %s: %w", p.ID, store.ErrNotFound)
	}
	s.projects[p.ID.String()] = copyProject(p)
	return nil
}

func (s *Store) DeleteProject(_ context.Context, projectID id.ProjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID.String()]; !ok {
		return fmt.Errorf("project %s: %w", projectID, store.ErrNotFound)
	}
	delete(s.projects, projectID.String())
	delete(s.assignees, projectID.String())
	for tid, t := range s.tasks {
		if t.ProjectID.String() == projectID.String() {
			delete(s.tasks, tid)
			s.deleteGrantsByTaskLocked(t.ID)
		}
	}
	return nil
}

func (s *Store) ListProjects(_ context.Context, filter *project.ListFilter) ([]*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*project.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if filter != nil {
			if filter.OwnerID != nil && p.OwnerID.String() != filter.OwnerID.String() {
				continue
			}
			if filter.Search != "" && !containsFold(p.Name, filter.Search) {
				continue
			}
		}
		c := copyProject(p)
		c.AssigneeIDs = copyIDs(s.assignees[p.ID.String()])
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return applyPagination(result, paginationProject(filter)), nil
}

func (s *Store) SetAssignees(_ context.Context, projectID id.ProjectID, userIDs []id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID.String()]; !ok {
		return fmt.Errorf("project %s: %w", projectID, store.ErrNotFound)
	}
	s.assignees[projectID.String()] = copyIDs(userIDs)
	return nil
}

func (s *Store) ListProjectIDsForAssignee(_ context.Context, userID id.UserID) ([]id.ProjectID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []id.ProjectID
	for pid, members := range s.assignees {
		for _, m := range members {
			if m.String() == userID.String() {
				parsed, err := id.ParseProjectID(pid)
				if err != nil {
					return nil, fmt.Errorf("corrupt project id %q: %w", pid, err)
				}
				result = append(result, parsed)
				break
			}
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Task Store
// ──────────────────────────────────────────────────

func (s *Store) CreateTask(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID.String()]; ok {
		return fmt.Errorf("task %s: %w", t.ID, store.ErrDuplicate)
	}
	s.tasks[t.ID.String()] = copyTask(t)
	return nil
}

func (s *Store) GetTask(_ context.Context, taskID id.TaskID) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID.String()]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
	}
	return copyTask(t), nil
}

func (s *Store) UpdateTask(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID.String()]; !ok {
		return fmt.Errorf("task %s: %w", t.ID, store.ErrNotFound)
	}
	s.tasks[t.ID.String()] = copyTask(t)
	return nil
}

func (s *Store) DeleteTask(_ context.Context, taskID id.TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[taskID.String()]; !ok {
		return fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
	}
	delete(s.tasks, taskID.String())
	s.deleteGrantsByTaskLocked(taskID)
	return nil
}

func (s *Store) ListTasks(_ context.Context, filter *task.ListFilter) ([]*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter != nil {
			if filter.OwnerID != nil && t.OwnerID.String() != filter.OwnerID.String() {
				continue
			}
			if filter.ProjectID != nil && t.ProjectID.String() != filter.ProjectID.String() {
				continue
			}
			if filter.Status != "" && t.Status != filter.Status {
				continue
			}
			if filter.Priority != "" && t.Priority != filter.Priority {
				continue
			}
			if filter.Search != "" && !containsFold(t.Title, filter.Search) {
				continue
			}
		}
		result = append(result, copyTask(t))
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if pr := priorityRank(a.Priority); pr != priorityRank(b.Priority) {
			return pr > priorityRank(b.Priority)
		}
		return a.ID.String() < b.ID.String()
	})
	return applyPagination(result, paginationTask(filter)), nil
}

// ──────────────────────────────────────────────────
// Grant Store
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(_ context.Context, g *grant.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(g.UserID, g.TaskID)
	if _, ok := s.grants[key]; ok {
		return fmt.Errorf("grant for user %s task %s: %w", g.UserID, g.TaskID, store.ErrDuplicate)
	}
	s.grants[key] = copyGrant(g)
	return nil
}

func (s *Store) UpsertGrant(_ context.Context, g *grant.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(g.UserID, g.TaskID)
	if existing, ok := s.grants[key]; ok {
		// The pair is unique: keep the surviving row's identity, replace the
		// level and the grantor.
		updated := copyGrant(existing)
		updated.Level = g.Level
		updated.AssignedBy = g.AssignedBy
		updated.UpdatedAt = g.UpdatedAt
		s.grants[key] = updated
		*g = *updated
		return nil
	}
	s.grants[key] = copyGrant(g)
	return nil
}

func (s *Store) FindGrant(_ context.Context, userID id.UserID, taskID id.TaskID) (*grant.Grant, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[pairKey(userID, taskID)]
	if !ok {
		return nil, false, nil
	}
	return copyGrant(g), true, nil
}

func (s *Store) DeleteGrant(_ context.Context, userID id.UserID, taskID id.TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, pairKey(userID, taskID))
	return nil
}

func (s *Store) ListGrants(_ context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*grant.Grant, 0, len(s.grants))
	for _, g := range s.grants {
		if filter != nil {
			if filter.UserID != nil && g.UserID.String() != filter.UserID.String() {
				continue
			}
			if filter.TaskID != nil && g.TaskID.String() != filter.TaskID.String() {
				continue
			}
			if filter.Level != "" && g.Level != filter.Level {
				continue
			}
		}
		result = append(result, copyGrant(g))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return applyPagination(result, paginationGrant(filter)), nil
}

func (s *Store) DeleteGrantsByTask(_ context.Context, taskID id.TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteGrantsByTaskLocked(taskID)
	return nil
}

func (s *Store) HasGrantInProject(_ context.Context, userID id.UserID, projectID id.ProjectID, min grant.Level) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.grants {
		if g.UserID.String() != userID.String() {
			continue
		}
		t, ok := s.tasks[g.TaskID.String()]
		if !ok || t.ProjectID.String() != projectID.String() {
			continue
		}
		if g.Level.Implies(min) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListGrantedProjectIDs(_ context.Context, userID id.UserID) ([]id.ProjectID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var result []id.ProjectID
	for _, g := range s.grants {
		if g.UserID.String() != userID.String() {
			continue
		}
		t, ok := s.tasks[g.TaskID.String()]
		if !ok || t.ProjectID.IsNil() {
			continue
		}
		if _, dup := seen[t.ProjectID.String()]; dup {
			continue
		}
		seen[t.ProjectID.String()] = struct{}{}
		result = append(result, t.ProjectID)
	}
	return result, nil
}

// deleteGrantsByTaskLocked requires s.mu held for writing.
func (s *Store) deleteGrantsByTaskLocked(taskID id.TaskID) {
	for key, g := range s.grants {
		if g.TaskID.String() == taskID.String() {
			delete(s.grants, key)
		}
	}
}

// ──────────────────────────────────────────────────
// Audit Store
// ──────────────────────────────────────────────────

func (s *Store) CreateEntry(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[e.ID.String()] = copyEntry(e)
	return nil
}

func (s *Store) ListEntries(_ context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*audit.Entry, 0, len(s.decisions))
	for _, e := range s.decisions {
		if filter != nil {
			if filter.ActorID != nil && e.ActorID.String() != filter.ActorID.String() {
				continue
			}
			if filter.Action != "" && e.Action != filter.Action {
				continue
			}
			if filter.ResourceType != "" && e.ResourceType != filter.ResourceType {
				continue
			}
			if filter.ResourceID != "" && e.ResourceID != filter.ResourceID {
				continue
			}
			if filter.Decision != "" && e.Decision != filter.Decision {
				continue
			}
			if filter.After != nil && !e.CreatedAt.After(*filter.After) {
				continue
			}
			if filter.Before != nil && !e.CreatedAt.Before(*filter.Before) {
				continue
			}
		}
		result = append(result, copyEntry(e))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	return applyPagination(result, paginationAudit(filter)), nil
}

func (s *Store) PurgeEntries(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for key, e := range s.decisions {
		if e.CreatedAt.Before(before) {
			delete(s.decisions, key)
			purged++
		}
	}
	return purged, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func pairKey(userID id.UserID, taskID id.TaskID) string {
	return userID.String() + "|" + taskID.String()
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func priorityRank(p task.Priority) int {
	switch p {
	case task.PriorityHigh:
		return 3
	case task.PriorityMedium:
		return 2
	case task.PriorityLow:
		return 1
	}
	return 0
}

func copyUser(u *user.User) *user.User {
	c := *u
	return &c
}

func copyProject(p *project.Project) *project.Project {
	c := *p
	c.AssigneeIDs = copyIDs(p.AssigneeIDs)
	return &c
}

func copyTask(t *task.Task) *task.Task {
	c := *t
	return &c
}

func copyGrant(g *grant.Grant) *grant.Grant {
	c := *g
	return &c
}

func copyEntry(e *audit.Entry) *audit.Entry {
	c := *e
	return &c
}

func copyIDs(ids []id.UserID) []id.UserID {
	if ids == nil {
		return nil
	}
	c := make([]id.UserID, len(ids))
	copy(c, ids)
	return c
}

// Pagination helpers for each entity type.
type pagOpts struct{ limit, offset int }

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset >= len(items) && p.offset > 0 {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}

func paginationUser(f *user.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationProject(f *project.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationTask(f *task.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationGrant(f *grant.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationAudit(f *audit.QueryFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}
