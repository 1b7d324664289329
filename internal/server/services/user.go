package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/dbx"
	"github.com/dmaltsev/tasklist/internal/logging"
	"github.com/dmaltsev/tasklist/internal/server/auth"
	"github.com/dmaltsev/tasklist/internal/server/models"
	"github.com/dmaltsev/tasklist/internal/server/repositories/repomanager"
	"github.com/dmaltsev/tasklist/internal/server/repositories/users"
)

// UserService implements profile reads and updates for the logged-in user.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger

	// seam for tests
	withTx func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		logger:      logger,
		withTx: func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
			return dbx.WithTx(ctx, db, nil, fn)
		},
	}
}

// GetDetail returns the caller's own account record.
func (s *UserService) GetDetail(ctx context.Context, userNo int64) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).Find(ctx, userNo)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrInternal
	}
	return user, nil
}

// UpdateUserName renames the caller's account.
func (s *UserService) UpdateUserName(ctx context.Context, userNo int64, userName string) error {
	if userName == "" {
		return common.ErrBadRequest
	}

	affected, err := s.repomanager.Users(s.db).Update(ctx, userNo, &users.Update{UserName: &userName})
	if err != nil {
		s.logger.Error(ctx, "user update failed", "error", err)
		return common.ErrInternal
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ChangePassword replaces the caller's password after verifying the current
// one. A wrong current password is Unauthorized, not BadRequest, so the
// transport maps it the same way as a failed login. The verification read and
// the update share one transaction.
func (s *UserService) ChangePassword(ctx context.Context, userNo int64, currentPassword, newPassword string) error {
	if newPassword == "" {
		return common.ErrBadRequest
	}

	return s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.Find(ctx, userNo)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrNotFound
			}
			s.logger.Error(ctx, "user lookup failed", "error", err)
			return common.ErrInternal
		}

		if !auth.VerifyPassword(currentPassword, user.Password) {
			return common.ErrUnauthorized
		}

		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			s.logger.Error(ctx, "password hashing failed", "error", err)
			return common.ErrInternal
		}

		affected, err := repo.Update(ctx, userNo, &users.Update{Password: &hash})
		if err != nil || affected == 0 {
			s.logger.Error(ctx, "password update failed", "error", err, "affected", affected)
			return common.ErrInternal
		}
		return nil
	})
}
