package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/foreman/audit"
	"github.com/xraph/foreman/grant"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/project"
	"github.com/xraph/foreman/task"
	"github.com/xraph/foreman/user"
)

// ──────────────────────────────────────────────────
// User model
// ──────────────────────────────────────────────────

type userModel struct {
	grove.BaseModel `grove:"table:foreman_users"`
	ID              string    `grove:"id,pk"`
	Username        string    `grove:"username,notnull"`
	Superuser       bool      `grove:"superuser,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func userToModel(u *user.User) *userModel {
	return &userModel{
		ID:        u.ID.String(),
		Username:  u.Username,
		Superuser: u.Superuser,
		CreatedAt: u.CreatedAt,
	}
}

func userFromModel(m *userModel) *user.User {
	uid, _ := id.ParseUserID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &user.User{
		ID:        uid,
		Username:  m.Username,
		Superuser: m.Superuser,
		CreatedAt: m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Project model
// ──────────────────────────────────────────────────

type projectModel struct {
	grove.BaseModel `grove:"table:foreman_projects"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	OwnerID         string    `grove:"owner_id,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func projectToModel(p *project.Project) *projectModel {
	return &projectModel{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID.String(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func projectFromModel(m *projectModel) *project.Project {
	pid, _ := id.ParseProjectID(m.ID)   //nolint:errcheck // stored IDs are always valid
	oid, _ := id.ParseUserID(m.OwnerID) //nolint:errcheck // stored IDs are always valid
	return &project.Project{
		ID:          pid,
		Name:        m.Name,
		Description: m.Description,
		OwnerID:     oid,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Project-assignee junction model
// ──────────────────────────────────────────────────

type projectAssigneeModel struct {
	grove.BaseModel `grove:"table:foreman_project_assignees"`
	ProjectID       string `grove:"project_id,pk"`
	UserID          string `grove:"user_id,pk"`
}

// ──────────────────────────────────────────────────
// Task model
// ──────────────────────────────────────────────────

type taskModel struct {
	grove.BaseModel `grove:"table:foreman_tasks"`
	ID              string    `grove:"id,pk"`
	Title           string    `grove:"title,notnull"`
	Description     string    `grove:"description"`
	DueDate         time.Time `grove:"due_date,notnull"`
	Priority        string    `grove:"priority,notnull"`
	Status          string    `grove:"status,notnull"`
	OwnerID         string    `grove:"owner_id,notnull"`
	ProjectID       *string   `grove:"project_id"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func taskToModel(t *task.Task) *taskModel {
	m := &taskModel{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		OwnerID:     t.OwnerID.String(),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if !t.ProjectID.IsNil() {
		s := t.ProjectID.String()
		m.ProjectID = &s
	}
	return m
}

func taskFromModel(m *taskModel) *task.Task {
	tid, _ := id.ParseTaskID(m.ID)      //nolint:errcheck // stored IDs are always valid
	oid, _ := id.ParseUserID(m.OwnerID) //nolint:errcheck // stored IDs are always valid
	t := &task.Task{
		ID:          tid,
		Title:       m.Title,
		Description: m.Description,
		DueDate:     m.DueDate,
		Priority:    task.Priority(m.Priority),
		Status:      task.Status(m.Status),
		OwnerID:     oid,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.ProjectID != nil {
		pid, err := id.ParseProjectID(*m.ProjectID)
		if err == nil {
			t.ProjectID = pid
		}
	}
	return t
}

// ──────────────────────────────────────────────────
// Grant model
// ──────────────────────────────────────────────────

type grantModel struct {
	grove.BaseModel `grove:"table:foreman_grants"`
	ID              string    `grove:"id,pk"`
	UserID          string    `grove:"user_id,notnull"`
	TaskID          string    `grove:"task_id,notnull"`
	Level           string    `grove:"level,notnull"`
	AssignedBy      string    `grove:"assigned_by,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func grantToModel(g *grant.Grant) *grantModel {
	return &grantModel{
		ID:         g.ID.String(),
		UserID:     g.UserID.String(),
		TaskID:     g.TaskID.String(),
		Level:      string(g.Level),
		AssignedBy: g.AssignedBy.String(),
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}

func grantFromModel(m *grantModel) *grant.Grant {
	gid, _ := id.ParseGrantID(m.ID)        //nolint:errcheck // stored IDs are always valid
	uid, _ := id.ParseUserID(m.UserID)     //nolint:errcheck // stored IDs are always valid
	tid, _ := id.ParseTaskID(m.TaskID)     //nolint:errcheck // stored IDs are always valid
	aid, _ := id.ParseUserID(m.AssignedBy) //nolint:errcheck // stored IDs are always valid
	return &grant.Grant{
		ID:         gid,
		UserID:     uid,
		TaskID:     tid,
		Level:      grant.Level(m.Level),
		AssignedBy: aid,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Decision log model
// ──────────────────────────────────────────────────

type decisionLogModel struct {
	grove.BaseModel `grove:"table:foreman_decision_logs"`
	ID              string    `grove:"id,pk"`
	ActorID         string    `grove:"actor_id,notnull"`
	Action          string    `grove:"action,notnull"`
	ResourceType    string    `grove:"resource_type,notnull"`
	ResourceID      string    `grove:"resource_id,notnull"`
	Decision        string    `grove:"decision,notnull"`
	Reason          string    `grove:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func entryToModel(e *audit.Entry) *decisionLogModel {
	return &decisionLogModel{
		ID:           e.ID.String(),
		ActorID:      e.ActorID.String(),
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Decision:     e.Decision,
		Reason:       e.Reason,
		EvalTimeNs:   e.EvalTimeNs,
		CreatedAt:    e.CreatedAt,
	}
}

func entryFromModel(m *decisionLogModel) *audit.Entry {
	did, _ := id.ParseDecisionID(m.ID)  //nolint:errcheck // stored IDs are always valid
	aid, _ := id.ParseUserID(m.ActorID) //nolint:errcheck // stored IDs are always valid
	return &audit.Entry{
		ID:           did,
		ActorID:      aid,
		Action:       m.Action,
		ResourceType: m.ResourceType,
		ResourceID:   m.ResourceID,
		Decision:     m.Decision,
		Reason:       m.Reason,
		EvalTimeNs:   m.EvalTimeNs,
		CreatedAt:    m.CreatedAt,
	}
}
