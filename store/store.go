// Package store defines the aggregate persistence interface. Each entity
// package (user, project, task, grant, audit) defines its own store
// interface; the composite Store composes them all. Backends: Postgres,
// SQLite, and Memory.
package store

import (
	"context"
	"errors"

	"github.com/xraph/foreman/audit"
	"github.com/xraph/foreman/grant"
	"github.com/xraph/foreman/project"
	"github.com/xraph/foreman/task"
	"github.com/xraph/foreman/user"
)

// ErrNotFound is the sentinel wrapped by every backend when an entity does
// not exist. Callers translate it into the entity-specific error kind.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is the sentinel wrapped by every backend when a uniqueness
// constraint is violated (e.g. a second grant for the same user and task).
var ErrDuplicate = errors.New("store: duplicate")

// Store is the aggregate persistence interface. A single backend
// (postgres, sqlite, memory) implements all of it.
type Store interface {
	user.Store
	project.Store
	task.Store
	grant.Store
	audit.Store

	// WithinTx runs fn inside a critical section scoped to one request, so
	// the reads behind an authorization decision and the writes they guard
	// cannot interleave with a concurrent grant mutation.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
