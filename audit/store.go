package audit

import (
	"context"
	"time"
)

// Store defines persistence operations for decision log entries.
type Store interface {
	// CreateEntry persists a new decision log entry.
	CreateEntry(ctx context.Context, e *Entry) error

	// ListEntries returns entries matching the filter, newest first.
	ListEntries(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// PurgeEntries deletes entries older than the given time and returns the
	// number removed.
	PurgeEntries(ctx context.Context, before time.Time) (int64, error)
}
