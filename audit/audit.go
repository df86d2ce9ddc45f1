// Package audit defines the authorization decision log Entry entity.
package audit

import (
	"time"

	"github.com/xraph/foreman/id"
)

// Entry is a single authorization decision audit record.
type Entry struct {
	ID           id.DecisionID `json:"id" db:"id"`
	ActorID      id.UserID     `json:"actor_id" db:"actor_id"`
	Action       string        `json:"action" db:"action"`
	ResourceType string        `json:"resource_type" db:"resource_type"`
	ResourceID   string        `json:"resource_id" db:"resource_id"`
	Decision     string        `json:"decision" db:"decision"`
	Reason       string        `json:"reason,omitempty" db:"reason"`
	EvalTimeNs   int64         `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying decision logs.
type QueryFilter struct {
	ActorID      *id.UserID `json:"actor_id,omitempty"`
	Action       string     `json:"action,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	ResourceID   string     `json:"resource_id,omitempty"`
	Decision     string     `json:"decision,omitempty"`
	After        *time.Time `json:"after,omitempty"`
	Before       *time.Time `json:"before,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}
