package sources

import (
	"context"

	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
)

// Repository persists sources. Owner-scoped methods report
// common.ErrorNotFound for rows that are absent or owned by someone else.
type Repository interface {
	Create(ctx context.Context, s *models.Source) (*models.Source, error)
	Update(ctx context.Context, s *models.Source) error
	Delete(ctx context.Context, id, owner string) error
	ListByOwner(ctx context.Context, owner string) ([]*models.Source, error)
	ExistsByName(ctx context.Context, owner, name string) (bool, error)
	SetActive(ctx context.Context, id string, active bool) error
	Count(ctx context.Context) (int64, error)
}
