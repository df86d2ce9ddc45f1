package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the foreman store (PostgreSQL).
var Migrations = migrate.NewGroup("foreman")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_users",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS foreman_users (
    id              TEXT PRIMARY KEY,
    username        TEXT NOT NULL,
    superuser       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(username)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS foreman_users`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_projects",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS foreman_projects (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    owner_id        TEXT NOT NULL REFERENCES foreman_users(id),
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_foreman_projects_owner ON foreman_projects (owner_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS foreman_projects`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_project_assignees",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS foreman_project_assignees (
    project_id      TEXT NOT NULL REFERENCES foreman_projects(id) ON DELETE CASCADE,
    user_id         TEXT NOT NULL REFERENCES foreman_users(id) ON DELETE CASCADE,

    PRIMARY KEY (project_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_foreman_passign_user ON foreman_project_assignees (user_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS foreman_project_assignees`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tasks",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS foreman_tasks (
    id              TEXT PRIMARY KEY,
    title           TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    due_date        TIMESTAMPTZ NOT NULL,
    priority        TEXT NOT NULL DEFAULT 'Medium',
    status          TEXT NOT NULL DEFAULT 'Pending',
    owner_id        TEXT NOT NULL REFERENCES foreman_users(id),
    project_id      TEXT REFERENCES foreman_projects(id) ON DELETE CASCADE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_foreman_tasks_owner ON foreman_tasks (owner_id);
CREATE INDEX IF NOT EXISTS idx_foreman_tasks_project ON foreman_tasks (project_id);
CREATE INDEX IF NOT EXISTS idx_foreman_tasks_due ON foreman_tasks (due_date);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS foreman_tasks`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_grants",
			Version: "20250101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS foreman_grants (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL REFERENCES foreman_users(id) ON DELETE CASCADE,
    task_id         TEXT NOT NULL REFERENCES foreman_tasks(id) ON DELETE CASCADE,
    level           TEXT NOT NULL,
    assigned_by     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(user_id, task_id)
);

CREATE INDEX IF NOT EXISTS idx_foreman_grants_user ON foreman_grants (user_id);
CREATE INDEX IF NOT EXISTS idx_foreman_grants_task ON foreman_grants (task_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS foreman_grants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_decision_logs",
			Version: "20250101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS foreman_decision_logs (
    id              TEXT PRIMARY KEY,
    actor_id        TEXT NOT NULL,
    action          TEXT NOT NULL,
    resource_type   TEXT NOT NULL,
    resource_id     TEXT NOT NULL,
    decision        TEXT NOT NULL,
    reason          TEXT NOT NULL DEFAULT '',
    eval_time_ns    BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_foreman_dlogs_actor ON foreman_decision_logs (actor_id);
CREATE INDEX IF NOT EXISTS idx_foreman_dlogs_resource ON foreman_decision_logs (resource_type, resource_id);
CREATE INDEX IF NOT EXISTS idx_foreman_dlogs_created ON foreman_decision_logs (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS foreman_decision_logs`)
				return err
			},
		},
	)
}
