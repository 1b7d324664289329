package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/dbx"
	"github.com/dmaltsev/tasklist/internal/logging"
	"github.com/dmaltsev/tasklist/internal/server/models"
	"github.com/dmaltsev/tasklist/internal/server/repositories/repomanager"
	"github.com/dmaltsev/tasklist/internal/server/repositories/todos"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// TodoPage is one page of a user's items plus the total the filter matches.
type TodoPage struct {
	Items []*models.Todo
	Total int64
	Page  int
	Size  int
}

// CreateTodoInput carries the fields for a new item. A nil Sequence places
// the item after the user's current last one.
type CreateTodoInput struct {
	Title    string
	Content  string
	Color    string
	DueAt    *time.Time
	Sequence *int
}

// UpdateTodoInput replaces all editable fields of an item.
type UpdateTodoInput struct {
	Title   string
	Content string
	Color   string
	DueAt   *time.Time
}

// PatchTodoInput changes the item's position and/or completion state. Nil
// fields are left untouched.
type PatchTodoInput struct {
	Sequence  *int
	Completed *bool
}

// TodoService implements the per-user TODO list operations. Every operation
// is ownership-checked against the caller's user number.
type TodoService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger

	// seams for tests
	now    func() time.Time
	newID  func() (string, error)
	withTx func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
}

// NewTodoService constructs a TodoService.
func NewTodoService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *TodoService {
	return &TodoService{
		db:          db,
		repomanager: m,
		logger:      logger,
		now:         time.Now,
		newID:       newTodoID,
		withTx: func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
			return dbx.WithTx(ctx, db, nil, fn)
		},
	}
}

func newTodoID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// List returns one page of the user's items. Page numbering starts at 1.
func (s *TodoService) List(ctx context.Context, userNo int64, page, size int, status, searchType, keyword string) (*TodoPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	filter, err := buildFilter(status, searchType, keyword)
	if err != nil {
		return nil, err
	}
	filter.Limit = size
	filter.Offset = (page - 1) * size

	repo := s.repomanager.Todos(s.db)
	items, err := repo.FindPage(ctx, userNo, filter)
	if err != nil {
		s.logger.Error(ctx, "todo listing failed", "error", err)
		return nil, common.ErrInternal
	}
	total, err := repo.CountPage(ctx, userNo, filter)
	if err != nil {
		s.logger.Error(ctx, "todo count failed", "error", err)
		return nil, common.ErrInternal
	}

	return &TodoPage{Items: items, Total: total, Page: page, Size: size}, nil
}

func buildFilter(status, searchType, keyword string) (todos.Filter, error) {
	filter := todos.Filter{Status: todos.StatusAll}

	switch todos.Status(status) {
	case todos.StatusAll, "":
	case todos.StatusComplete, todos.StatusIncomplete:
		filter.Status = todos.Status(status)
	default:
		return filter, common.ErrBadRequest
	}

	if keyword != "" {
		switch todos.SearchType(searchType) {
		case todos.SearchTitle, "":
			filter.SearchType = todos.SearchTitle
		case todos.SearchContent:
			filter.SearchType = todos.SearchContent
		default:
			return filter, common.ErrBadRequest
		}
		filter.Keyword = keyword
	}

	return filter, nil
}

// Get returns one of the caller's items.
func (s *TodoService) Get(ctx context.Context, userNo int64, todoID string) (*models.Todo, error) {
	return s.findOwned(ctx, userNo, todoID)
}

// Create inserts a new item. When no sequence is given the item goes after
// the user's current last one.
func (s *TodoService) Create(ctx context.Context, userNo int64, input *CreateTodoInput) (*models.Todo, error) {
	if input.Title == "" {
		return nil, common.ErrBadRequest
	}

	repo := s.repomanager.Todos(s.db)

	sequence := 0
	if input.Sequence != nil {
		sequence = *input.Sequence
	} else {
		max, err := repo.MaxSequence(ctx, userNo)
		if err != nil {
			s.logger.Error(ctx, "sequence lookup failed", "error", err)
			return nil, common.ErrInternal
		}
		sequence = max + 1
	}

	id, err := s.newID()
	if err != nil {
		s.logger.Error(ctx, "todo id generation failed", "error", err)
		return nil, common.ErrInternal
	}

	todo := &models.Todo{
		TodoID:   id,
		UserNo:   userNo,
		Title:    input.Title,
		Content:  input.Content,
		Color:    input.Color,
		Sequence: sequence,
		DueAt:    input.DueAt,
	}
	if _, err := repo.Create(ctx, todo); err != nil {
		s.logger.Error(ctx, "todo creation failed", "error", err)
		return nil, common.ErrInternal
	}
	return todo, nil
}

// Update replaces the item's editable fields.
func (s *TodoService) Update(ctx context.Context, userNo int64, todoID string, input *UpdateTodoInput) (*models.Todo, error) {
	if input.Title == "" {
		return nil, common.ErrBadRequest
	}

	todo, err := s.findOwned(ctx, userNo, todoID)
	if err != nil {
		return nil, err
	}

	todo.Title = input.Title
	todo.Content = input.Content
	todo.Color = input.Color
	todo.DueAt = input.DueAt

	affected, err := s.repomanager.Todos(s.db).Update(ctx, todo)
	if err != nil || affected == 0 {
		s.logger.Error(ctx, "todo update failed", "error", err, "affected", affected)
		return nil, common.ErrInternal
	}
	return todo, nil
}

// Patch moves the item and/or toggles its completion state. When both are
// requested the two updates land in one transaction.
func (s *TodoService) Patch(ctx context.Context, userNo int64, todoID string, patch *PatchTodoInput) error {
	if patch.Sequence == nil && patch.Completed == nil {
		return common.ErrBadRequest
	}

	if _, err := s.findOwned(ctx, userNo, todoID); err != nil {
		return err
	}

	return s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Todos(tx)

		if patch.Sequence != nil {
			affected, err := repo.UpdateSequence(ctx, todoID, *patch.Sequence)
			if err != nil || affected == 0 {
				s.logger.Error(ctx, "sequence update failed", "error", err, "affected", affected)
				return common.ErrInternal
			}
		}

		if patch.Completed != nil {
			var completedAt *time.Time
			if *patch.Completed {
				now := s.now()
				completedAt = &now
			}
			affected, err := repo.SetCompletedAt(ctx, todoID, completedAt)
			if err != nil || affected == 0 {
				s.logger.Error(ctx, "completion update failed", "error", err, "affected", affected)
				return common.ErrInternal
			}
		}

		return nil
	})
}

// Delete removes one of the caller's items.
func (s *TodoService) Delete(ctx context.Context, userNo int64, todoID string) error {
	if _, err := s.findOwned(ctx, userNo, todoID); err != nil {
		return err
	}

	affected, err := s.repomanager.Todos(s.db).Delete(ctx, todoID)
	if err != nil || affected == 0 {
		s.logger.Error(ctx, "todo delete failed", "error", err, "affected", affected)
		return common.ErrInternal
	}
	return nil
}

// Statistics returns the user's item counts.
func (s *TodoService) Statistics(ctx context.Context, userNo int64) (*todos.Stats, error) {
	stats, err := s.repomanager.Todos(s.db).Statistics(ctx, userNo)
	if err != nil {
		s.logger.Error(ctx, "statistics query failed", "error", err)
		return nil, common.ErrInternal
	}
	return stats, nil
}

func (s *TodoService) findOwned(ctx context.Context, userNo int64, todoID string) (*models.Todo, error) {
	todo, err := s.repomanager.Todos(s.db).Find(ctx, todoID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		s.logger.Error(ctx, "todo lookup failed", "error", err)
		return nil, common.ErrInternal
	}
	if todo.UserNo != userNo {
		return nil, common.ErrForbidden
	}
	return todo, nil
}
