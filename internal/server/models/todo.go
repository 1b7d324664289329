package models

import "time"

// Todo is a single TODO item. TodoID is a UUIDv7 so items sort by creation
// time without a separate index.
type Todo struct {
	TodoID      string
	UserNo      int64
	Title       string
	Content     string
	Color       string
	Sequence    int
	DueAt       *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Completed reports whether the item has been marked done.
func (t *Todo) Completed() bool {
	return t.CompletedAt != nil
}
