package todos

import (
	"context"
	"time"

	"github.com/dmaltsev/tasklist/internal/server/models"
)

// Status filters a listing by completion state.
type Status string

const (
	StatusAll        Status = "all"
	StatusComplete   Status = "complete"
	StatusIncomplete Status = "incomplete"
)

// SearchType selects the column a keyword search runs against.
type SearchType string

const (
	SearchTitle   SearchType = "title"
	SearchContent SearchType = "content"
)

// Filter narrows a paged listing. Keyword is ignored when empty.
type Filter struct {
	Status     Status
	SearchType SearchType
	Keyword    string
	Limit      int
	Offset     int
}

// Stats aggregates a user's item counts.
type Stats struct {
	Total          int64
	Completed      int64
	CompletedToday int64
}

type Repository interface {
	Create(ctx context.Context, todo *models.Todo) (*models.Todo, error)
	Find(ctx context.Context, todoID string) (*models.Todo, error)
	FindPage(ctx context.Context, userNo int64, filter Filter) ([]*models.Todo, error)
	CountPage(ctx context.Context, userNo int64, filter Filter) (int64, error)
	MaxSequence(ctx context.Context, userNo int64) (int, error)
	Update(ctx context.Context, todo *models.Todo) (int64, error)
	UpdateSequence(ctx context.Context, todoID string, sequence int) (int64, error)
	SetCompletedAt(ctx context.Context, todoID string, completedAt *time.Time) (int64, error)
	Delete(ctx context.Context, todoID string) (int64, error)
	Statistics(ctx context.Context, userNo int64) (*Stats, error)
}
