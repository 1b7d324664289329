package users

import (
	"context"

	"github.com/dmaltsev/tasklist/internal/server/models"
)

// Update carries the fields a partial user update may change. Nil fields
// are left untouched.
type Update struct {
	UserName *string
	Password *string
}

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Find(ctx context.Context, userNo int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, userNo int64, upd *Update) (int64, error)
	UpdateLastLoginAt(ctx context.Context, userNo int64) error
}
