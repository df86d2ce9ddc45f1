// Package postgres provides a PostgreSQL implementation of the foreman
// composite store, backed by the grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/foreman/audit"
	"github.com/xraph/foreman/grant"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/project"
	"github.com/xraph/foreman/store"
	"github.com/xraph/foreman/task"
	"github.com/xraph/foreman/user"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// taskOrder sorts tasks by due date, then priority (high first), then ID for
// a stable tail.
const taskOrder = "due_date ASC, CASE priority WHEN 'High' THEN 3 WHEN 'Medium' THEN 2 ELSE 1 END DESC, id ASC"

// Store is a PostgreSQL implementation of the composite foreman store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB

	// txMu serializes WithinTx critical sections so a permission read and
	// the write it guards cannot interleave with a concurrent mutation.
	txMu sync.Mutex
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("foreman/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("foreman/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithinTx runs fn while holding the section mutex. Sections must not nest.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// User operations
// ──────────────────────────────────────────────────

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	m := userToModel(u)
	res, err := s.pgdb.NewInsert(m).
		OnConflict("DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: create user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("foreman: create user rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %q: %w", u.Username, store.ErrDuplicate)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	m := new(userModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", userID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("foreman: get user: %w", err)
	}
	return userFromModel(m), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	m := new(userModel)
	err := s.pgdb.NewSelect(m).Where("username = ?", username).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("username %q: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("foreman: get user by username: %w", err)
	}
	return userFromModel(m), nil
}

func (s *Store) ListUsers(ctx context.Context, filter *user.ListFilter) ([]*user.User, error) {
	var models []userModel
	q := s.pgdb.NewSelect(&models).OrderExpr("username ASC")
	if filter != nil {
		if filter.Superuser != nil {
			q = q.Where("superuser = ?", *filter.Superuser)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(username) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("foreman: list users: %w", err)
	}
	result := make([]*user.User, len(models))
	for i := range models {
		result[i] = userFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Project operations
// ──────────────────────────────────────────────────

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("foreman: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if _, err := tx.NewInsert(projectToModel(p)).Exec(ctx); err != nil {
		return fmt.Errorf("foreman: create project: %w", err)
	}
	if len(p.AssigneeIDs) > 0 {
		models := make([]projectAssigneeModel, len(p.AssigneeIDs))
		for i, uid := range p.AssigneeIDs {
			models[i] = projectAssigneeModel{
				ProjectID: p.ID.String(),
				UserID:    uid.String(),
			}
		}
		if _, err := tx.NewInsert(&models).Exec(ctx); err != nil {
			return fmt.Errorf("foreman: create project assignees: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("foreman: commit tx: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, projectID id.ProjectID) (*project.Project, error) {
	m := new(projectModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", projectID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("foreman: get project: %w", err)
	}
	p := projectFromModel(m)
	p.AssigneeIDs, err = s.loadAssignees(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	res, err := s.pgdb.NewUpdate(projectToModel(p)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("foreman: update project rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", p.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID id.ProjectID) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("foreman: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	// Cascade grants, tasks, and assignees in one transaction with the
	// project row.
	_, err = tx.NewDelete((*grantModel)(nil)).
		Where("task_id IN (SELECT id FROM foreman_tasks WHERE project_id = ?)", projectID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: delete project grants: %w", err)
	}
	_, err = tx.NewDelete((*taskModel)(nil)).
		Where("project_id = ?", projectID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: delete project tasks: %w", err)
	}
	_, err = tx.NewDelete((*projectAssigneeModel)(nil)).
		Where("project_id = ?", projectID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: delete project assignees: %w", err)
	}
	res, err := tx.NewDelete((*projectModel)(nil)).
		Where("id = ?", projectID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("foreman: delete project rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", projectID, store.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("foreman: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context, filter *project.ListFilter) ([]*project.Project, error) {
	var models []projectModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC, id ASC")
	if filter != nil {
		if filter.OwnerID != nil {
			q = q.Where("owner_id = ?", filter.OwnerID.String())
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("foreman: list projects: %w", err)
	}
	result := make([]*project.Project, len(models))
	for i := range models {
		p := projectFromModel(&models[i])
		assignees, err := s.loadAssignees(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.AssigneeIDs = assignees
		result[i] = p
	}
	return result, nil
}

func (s *Store) SetAssignees(ctx context.Context, projectID id.ProjectID, userIDs []id.UserID) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("foreman: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	_, err = tx.NewDelete((*projectAssigneeModel)(nil)).
		Where("project_id = ?", projectID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: clear assignees: %w", err)
	}

	if len(userIDs) > 0 {
		models := make([]projectAssigneeModel, len(userIDs))
		for i, uid := range userIDs {
			models[i] = projectAssigneeModel{
				ProjectID: projectID.String(),
				UserID:    uid.String(),
			}
		}
		if _, err := tx.NewInsert(&models).Exec(ctx); err != nil {
			return fmt.Errorf("foreman: set assignees: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("foreman: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListProjectIDsForAssignee(ctx context.Context, userID id.UserID) ([]id.ProjectID, error) {
	var models []projectAssigneeModel
	err := s.pgdb.NewSelect(&models).
		Where("user_id = ?", userID.String()).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("foreman: list projects for assignee: %w", err)
	}
	result := make([]id.ProjectID, 0, len(models))
	for _, m := range models {
		pid, err := id.ParseProjectID(m.ProjectID)
		if err == nil {
			result = append(result, pid)
		}
	}
	return result, nil
}

func (s *Store) loadAssignees(ctx context.Context, projectID id.ProjectID) ([]id.UserID, error) {
	var models []projectAssigneeModel
	err := s.pgdb.NewSelect(&models).
		Where("project_id = ?", projectID.String()).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("foreman: load assignees: %w", err)
	}
	result := make([]id.UserID, 0, len(models))
	for _, m := range models {
		uid, err := id.ParseUserID(m.UserID)
		if err == nil {
			result = append(result, uid)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Task operations
// ──────────────────────────────────────────────────

func (s *Store) CreateTask(ctx context.Context, t *task.Task) error {
	if _, err := s.pgdb.NewInsert(taskToModel(t)).Exec(ctx); err != nil {
		return fmt.Errorf("foreman: create task: %w", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, taskID id.TaskID) (*task.Task, error) {
	m := new(taskModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", taskID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("foreman: get task: %w", err)
	}
	return taskFromModel(m), nil
}

func (s *Store) UpdateTask(ctx context.Context, t *task.Task) error {
	res, err := s.pgdb.NewUpdate(taskToModel(t)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("foreman: update task rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", t.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, taskID id.TaskID) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("foreman: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	_, err = tx.NewDelete((*grantModel)(nil)).
		Where("task_id = ?", taskID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: delete task grants: %w", err)
	}
	res, err := tx.NewDelete((*taskModel)(nil)).
		Where("id = ?", taskID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("foreman: delete task rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("foreman: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, filter *task.ListFilter) ([]*task.Task, error) {
	var models []taskModel
	q := s.pgdb.NewSelect(&models).OrderExpr(taskOrder)
	if filter != nil {
		if filter.OwnerID != nil {
			q = q.Where("owner_id = ?", filter.OwnerID.String())
		}
		if filter.ProjectID != nil {
			q = q.Where("project_id = ?", filter.ProjectID.String())
		}
		if filter.Status != "" {
			q = q.Where("status = ?", string(filter.Status))
		}
		if filter.Priority != "" {
			q = q.Where("priority = ?", string(filter.Priority))
		}
		if filter.Search != "" {
			q = q.Where("LOWER(title) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("foreman: list tasks: %w", err)
	}
	result := make([]*task.Task, len(models))
	for i := range models {
		result[i] = taskFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	res, err := s.pgdb.NewInsert(grantToModel(g)).
		OnConflict("(user_id, task_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: create grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("foreman: create grant rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("grant for user %s task %s: %w", g.UserID, g.TaskID, store.ErrDuplicate)
	}
	return nil
}

func (s *Store) UpsertGrant(ctx context.Context, g *grant.Grant) error {
	// The UNIQUE(user_id, task_id) constraint makes racing upserts collapse
	// to a single surviving row.
	_, err := s.pgdb.NewInsert(grantToModel(g)).
		OnConflict("(user_id, task_id) DO UPDATE SET level = excluded.level, assigned_by = excluded.assigned_by, updated_at = excluded.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: upsert grant: %w", err)
	}
	return nil
}

func (s *Store) FindGrant(ctx context.Context, userID id.UserID, taskID id.TaskID) (*grant.Grant, bool, error) {
	m := new(grantModel)
	err := s.pgdb.NewSelect(m).
		Where("user_id = ?", userID.String()).
		Where("task_id = ?", taskID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("foreman: find grant: %w", err)
	}
	return grantFromModel(m), true, nil
}

func (s *Store) DeleteGrant(ctx context.Context, userID id.UserID, taskID id.TaskID) error {
	_, err := s.pgdb.NewDelete((*grantModel)(nil)).
		Where("user_id = ?", userID.String()).
		Where("task_id = ?", taskID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: delete grant: %w", err)
	}
	return nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC, id ASC")
	if filter != nil {
		if filter.UserID != nil {
			q = q.Where("user_id = ?", filter.UserID.String())
		}
		if filter.TaskID != nil {
			q = q.Where("task_id = ?", filter.TaskID.String())
		}
		if filter.Level != "" {
			q = q.Where("level = ?", string(filter.Level))
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("foreman: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteGrantsByTask(ctx context.Context, taskID id.TaskID) error {
	_, err := s.pgdb.NewDelete((*grantModel)(nil)).
		Where("task_id = ?", taskID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("foreman: delete grants by task: %w", err)
	}
	return nil
}

func (s *Store) HasGrantInProject(ctx context.Context, userID id.UserID, projectID id.ProjectID, min grant.Level) (bool, error) {
	// Level implication is resolved in Go; the level set is three values so
	// loading the user's grants for the project is cheap.
	var models []grantModel
	err := s.pgdb.NewSelect(&models).
		Where("user_id = ?", userID.String()).
		Where("task_id IN (SELECT id FROM foreman_tasks WHERE project_id = ?)", projectID.String()).
		Scan(ctx)
	if err != nil {
		return false, fmt.Errorf("foreman: grants in project: %w", err)
	}
	for i := range models {
		if grant.Level(models[i].Level).Implies(min) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListGrantedProjectIDs(ctx context.Context, userID id.UserID) ([]id.ProjectID, error) {
	var models []taskModel
	err := s.pgdb.NewSelect(&models).
		Join("JOIN", "foreman_grants AS g", "g.task_id = foreman_tasks.id").
		Where("g.user_id = ?", userID.String()).
		Where("foreman_tasks.project_id IS NOT NULL").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("foreman: granted project ids: %w", err)
	}
	seen := make(map[string]struct{})
	result := make([]id.ProjectID, 0, len(models))
	for _, m := range models {
		if m.ProjectID == nil {
			continue
		}
		if _, dup := seen[*m.ProjectID]; dup {
			continue
		}
		seen[*m.ProjectID] = struct{}{}
		pid, err := id.ParseProjectID(*m.ProjectID)
		if err == nil {
			result = append(result, pid)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateEntry(ctx context.Context, e *audit.Entry) error {
	if _, err := s.pgdb.NewInsert(entryToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("foreman: create decision log: %w", err)
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []decisionLogModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC, id DESC")
	if filter != nil {
		if filter.ActorID != nil {
			q = q.Where("actor_id = ?", filter.ActorID.String())
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.ResourceType != "" {
			q = q.Where("resource_type = ?", filter.ResourceType)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("foreman: list decision logs: %w", err)
	}
	result := make([]*audit.Entry, len(models))
	for i := range models {
		result[i] = entryFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) PurgeEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*decisionLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("foreman: purge decision logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("foreman: purge decision logs rows: %w", err)
	}
	return n, nil
}
