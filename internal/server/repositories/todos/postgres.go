// Package todos provides a PostgreSQL-backed repository for TODO items.
package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/dbx"
	"github.com/dmaltsev/tasklist/internal/server/models"
)

const todoColumns = "todo_id, user_no, title, content, color, sequence, due_at, completed_at, created_at, updated_at"

// PostgresRepository implements CRUD operations for TODO items over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new item and returns it with the assigned created_at.
func (r *PostgresRepository) Create(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	query := `
		INSERT INTO todos (todo_id, user_no, title, content, color, sequence, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	if err := r.db.QueryRowContext(ctx, query,
		todo.TodoID, todo.UserNo, todo.Title, todo.Content, todo.Color, todo.Sequence, todo.DueAt).
		Scan(&todo.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return todo, nil
}

// Find returns the item with the given todo_id.
// If not found, it returns common.ErrNotFound.
func (r *PostgresRepository) Find(ctx context.Context, todoID string) (*models.Todo, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM todos
		WHERE todo_id = $1
	`, todoColumns)
	todo := &models.Todo{}
	if err := scanTodo(r.db.QueryRowContext(ctx, query, todoID), todo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return todo, nil
}

// filterClause renders the WHERE tail for a listing filter. Arguments are
// appended to args starting at the next placeholder index.
func filterClause(filter Filter, args *[]any) string {
	clause := ""

	switch filter.Status {
	case StatusComplete:
		clause += " AND completed_at IS NOT NULL"
	case StatusIncomplete:
		clause += " AND completed_at IS NULL"
	}

	if filter.Keyword != "" {
		column := "title"
		if filter.SearchType == SearchContent {
			column = "content"
		}
		*args = append(*args, "%"+filter.Keyword+"%")
		clause += fmt.Sprintf(" AND %s ILIKE $%d", column, len(*args))
	}

	return clause
}

// FindPage returns one page of the user's items ordered by sequence.
func (r *PostgresRepository) FindPage(ctx context.Context, userNo int64, filter Filter) ([]*models.Todo, error) {
	args := []any{userNo}
	clause := filterClause(filter, &args)

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM todos
		WHERE user_no = $1%s
		ORDER BY sequence ASC
		LIMIT $%d OFFSET $%d
	`, todoColumns, clause, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Todo
	for rows.Next() {
		todo := &models.Todo{}
		if err := scanTodo(rows, todo); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// CountPage returns the number of items the filter matches, ignoring paging.
func (r *PostgresRepository) CountPage(ctx context.Context, userNo int64, filter Filter) (int64, error) {
	args := []any{userNo}
	clause := filterClause(filter, &args)

	query := fmt.Sprintf("SELECT count(*) FROM todos WHERE user_no = $1%s", clause)

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

// MaxSequence returns the highest sequence among the user's items, 0 when the
// user has none.
func (r *PostgresRepository) MaxSequence(ctx context.Context, userNo int64) (int, error) {
	query := `
		SELECT COALESCE(MAX(sequence), 0)
		FROM todos
		WHERE user_no = $1
	`
	var max int
	if err := r.db.QueryRowContext(ctx, query, userNo).Scan(&max); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return max, nil
}

// Update replaces the item's editable fields and stamps updated_at. It
// returns the number of rows affected.
func (r *PostgresRepository) Update(ctx context.Context, todo *models.Todo) (int64, error) {
	query := `
		UPDATE todos
		SET title = $1, content = $2, color = $3, due_at = $4, updated_at = now()
		WHERE todo_id = $5
	`
	res, err := r.db.ExecContext(ctx, query, todo.Title, todo.Content, todo.Color, todo.DueAt, todo.TodoID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected(res)
}

// UpdateSequence moves the item within the user's ordering.
func (r *PostgresRepository) UpdateSequence(ctx context.Context, todoID string, sequence int) (int64, error) {
	query := `
		UPDATE todos
		SET sequence = $1, updated_at = now()
		WHERE todo_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, sequence, todoID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected(res)
}

// SetCompletedAt marks the item complete (non-nil) or reopens it (nil).
func (r *PostgresRepository) SetCompletedAt(ctx context.Context, todoID string, completedAt *time.Time) (int64, error) {
	query := `
		UPDATE todos
		SET completed_at = $1, updated_at = now()
		WHERE todo_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, completedAt, todoID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected(res)
}

// Delete removes the item and returns the number of rows affected.
func (r *PostgresRepository) Delete(ctx context.Context, todoID string) (int64, error) {
	query := `
		DELETE FROM todos
		WHERE todo_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, todoID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected(res)
}

// Statistics aggregates the user's item counts in a single query.
func (r *PostgresRepository) Statistics(ctx context.Context, userNo int64) (*Stats, error) {
	query := `
		SELECT count(*),
		       count(completed_at),
		       count(*) FILTER (WHERE completed_at >= date_trunc('day', now()))
		FROM todos
		WHERE user_no = $1
	`
	stats := &Stats{}
	if err := r.db.QueryRowContext(ctx, query, userNo).
		Scan(&stats.Total, &stats.Completed, &stats.CompletedToday); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return stats, nil
}

func affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(row scanner, todo *models.Todo) error {
	return row.Scan(
		&todo.TodoID, &todo.UserNo, &todo.Title, &todo.Content, &todo.Color,
		&todo.Sequence, &todo.DueAt, &todo.CompletedAt, &todo.CreatedAt, &todo.UpdatedAt)
}
