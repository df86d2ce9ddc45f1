// Package grant defines per-task permission grants and the Level lattice.
package grant

import (
	"fmt"
	"time"

	"github.com/xraph/foreman/id"
)

// Level is a grant's access level. Levels are ordered by implication:
// delete implies edit implies view.
type Level string

// Level values, lowest to highest.
const (
	LevelView   Level = "view"
	LevelEdit   Level = "edit"
	LevelDelete Level = "delete"
)

var levelRank = map[Level]int{
	LevelView:   1,
	LevelEdit:   2,
	LevelDelete: 3,
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// Implies reports whether holding level l satisfies a request for level
// other. Both levels must be valid.
func (l Level) Implies(other Level) bool {
	lr, ok := levelRank[l]
	if !ok {
		return false
	}
	or, ok := levelRank[other]
	if !ok {
		return false
	}
	return lr >= or
}

// ParseLevel parses a level string.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("grant: invalid level %q", s)
	}
	return l, nil
}

// Grant ties one user to one task with an access level. At most one grant
// exists per (user, task) pair; SetPermission upserts.
type Grant struct {
	ID         id.GrantID `json:"id" db:"id"`
	UserID     id.UserID  `json:"user_id" db:"user_id"`
	TaskID     id.TaskID  `json:"task_id" db:"task_id"`
	Level      Level      `json:"level" db:"level"`
	AssignedBy id.UserID  `json:"assigned_by" db:"assigned_by"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing grants.
type ListFilter struct {
	UserID *id.UserID `json:"user_id,omitempty"`
	TaskID *id.TaskID `json:"task_id,omitempty"`
	Level  Level      `json:"level,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}
