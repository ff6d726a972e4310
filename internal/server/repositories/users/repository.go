package users

import (
	"context"
	"time"

	"github.com/passguard/passguard/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateTOTP(ctx context.Context, userID, secret string, enabled bool) error
	StampLastLogin(ctx context.Context, userID string, at time.Time) error
}
