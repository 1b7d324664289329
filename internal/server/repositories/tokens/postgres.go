// Package tokens provides a PostgreSQL-backed repository for login session
// records keyed by refresh token.
package tokens

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

// PostgresRepository implements CRUD operations for refresh tokens over
// dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new session record and returns it with the assigned token_no.
func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (user_no, refresh_token, client_os, access_token_expires_at, refresh_token_expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING token_no
	`
	if err := r.db.QueryRowContext(ctx, query,
		token.UserNo, token.RefreshToken, token.ClientOS,
		token.AccessTokenExpiresAt, token.RefreshTokenExpiresAt, token.CreatedAt).
		Scan(&token.TokenNo); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// FindByRefreshToken returns the session record for an opaque refresh token
// value. If not found, it returns common.ErrNotFound.
func (r *PostgresRepository) FindByRefreshToken(ctx context.Context, refreshToken string) (*models.RefreshToken, error) {
	query := `
		SELECT token_no, user_no, refresh_token, client_os, access_token_expires_at, refresh_token_expires_at, created_at
		FROM refresh_tokens
		WHERE refresh_token = $1
	`
	token := &models.RefreshToken{}
	if err := r.db.QueryRowContext(ctx, query, refreshToken).Scan(
		&token.TokenNo, &token.UserNo, &token.RefreshToken, &token.ClientOS,
		&token.AccessTokenExpiresAt, &token.RefreshTokenExpiresAt, &token.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// FindAllByUserNo returns every session record for the user, newest first.
// Expired records are included.
func (r *PostgresRepository) FindAllByUserNo(ctx context.Context, userNo int64) ([]*models.RefreshToken, error) {
	query := `
		SELECT token_no, user_no, refresh_token, client_os, access_token_expires_at, refresh_token_expires_at, created_at
		FROM refresh_tokens
		WHERE user_no = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userNo)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.RefreshToken
	for rows.Next() {
		token := &models.RefreshToken{}
		if err := rows.Scan(
			&token.TokenNo, &token.UserNo, &token.RefreshToken, &token.ClientOS,
			&token.AccessTokenExpiresAt, &token.RefreshTokenExpiresAt, &token.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// UpdateAccessExpiry moves the access token expiry forward on reissue and
// returns the number of rows affected. The refresh token expiry is left as is.
func (r *PostgresRepository) UpdateAccessExpiry(ctx context.Context, tokenNo int64, accessTokenExpiresAt time.Time) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET access_token_expires_at = $1
		WHERE token_no = $2
	`
	res, err := r.db.ExecContext(ctx, query, accessTokenExpiresAt, tokenNo)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}

// Delete removes a session record by token_no and returns the number of rows
// affected.
func (r *PostgresRepository) Delete(ctx context.Context, tokenNo int64) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token_no = $1
	`
	res, err := r.db.ExecContext(ctx, query, tokenNo)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}
