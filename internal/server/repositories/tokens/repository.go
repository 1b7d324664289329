package tokens

import (
	"context"
	"time"

	"github.com/dmaltsev/tasklist/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error)
	FindByRefreshToken(ctx context.Context, refreshToken string) (*models.RefreshToken, error)
	FindAllByUserNo(ctx context.Context, userNo int64) ([]*models.RefreshToken, error)
	UpdateAccessExpiry(ctx context.Context, tokenNo int64, accessTokenExpiresAt time.Time) (int64, error)
	Delete(ctx context.Context, tokenNo int64) (int64, error)
}
