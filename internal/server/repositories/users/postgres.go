// Package users provides a PostgreSQL-backed repository for user accounts.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/dbx"
	"github.com/dmaltsev/tasklist/internal/server/models"
)

// PostgresRepository implements CRUD operations for users over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user and returns it with the assigned user_no.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, password, user_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING user_no, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, user.Email, user.Password, user.UserName, string(user.Role)).
		Scan(&user.UserNo, &user.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// Find returns the user with the given user_no.
// If not found, it returns common.ErrNotFound.
func (r *PostgresRepository) Find(ctx context.Context, userNo int64) (*models.User, error) {
	query := `
		SELECT user_no, email, password, user_name, role, created_at, last_login_at
		FROM users
		WHERE user_no = $1 AND deleted_at IS NULL
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, userNo))
}

// FindByEmail returns the user registered under the given email address.
// If not found, it returns common.ErrNotFound.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT user_no, email, password, user_name, role, created_at, last_login_at
		FROM users
		WHERE email = $1 AND deleted_at IS NULL
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// Update applies the non-nil fields of upd to the user and returns the
// number of rows affected. Calling it with no fields set is an error.
func (r *PostgresRepository) Update(ctx context.Context, userNo int64, upd *Update) (int64, error) {
	set := ""
	args := []any{}
	add := func(column string, value any) {
		if set != "" {
			set += ", "
		}
		args = append(args, value)
		set += fmt.Sprintf("%s = $%d", column, len(args))
	}

	if upd.UserName != nil {
		add("user_name", *upd.UserName)
	}
	if upd.Password != nil {
		add("password", *upd.Password)
	}
	if len(args) == 0 {
		return 0, errors.New("users: empty update")
	}

	args = append(args, userNo)
	query := fmt.Sprintf("UPDATE users SET %s WHERE user_no = $%d AND deleted_at IS NULL", set, len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}

// UpdateLastLoginAt stamps the user's last successful login time.
func (r *PostgresRepository) UpdateLastLoginAt(ctx context.Context, userNo int64) error {
	query := `
		UPDATE users
		SET last_login_at = now()
		WHERE user_no = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userNo); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var role string
	if err := row.Scan(&user.UserNo, &user.Email, &user.Password, &user.UserName, &role, &user.CreatedAt, &user.LastLoginAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.Role = models.Role(role)
	return user, nil
}
