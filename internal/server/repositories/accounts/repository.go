package accounts

import (
	"context"

	"github.com/passguard/passguard/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID string) ([]*models.Account, error)
	GetByService(ctx context.Context, userID, service string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	// Update commits the row only when the caller's Version matches the
	// stored one; otherwise it returns common.ErrVersionConflict.
	Update(ctx context.Context, account *models.Account) (*models.Account, error)
	Delete(ctx context.Context, userID, service string) error
}
