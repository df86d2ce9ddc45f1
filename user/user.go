// Package user defines the User entity and its store interface.
//
// Users are created and destroyed by an external identity system; foreman
// persists a reference row so that ownership, assignment, and grant foreign
// keys hold. The Superuser flag is the single global-admin capability.
package user

import (
	"time"

	"github.com/xraph/foreman/id"
)

// User is an actor reference mirrored from the external identity system.
type User struct {
	ID        id.UserID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Superuser bool      `json:"superuser" db:"superuser"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ListFilter contains filters for listing users.
type ListFilter struct {
	Superuser *bool  `json:"superuser,omitempty"`
	Search    string `json:"search,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}
