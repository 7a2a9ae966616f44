package dashboards

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
)

// Repository persists dashboards. Owner-scoped methods report
// common.ErrorNotFound both when the row is absent and when it belongs to
// another user.
type Repository interface {
	Create(ctx context.Context, d *models.Dashboard) (*models.Dashboard, error)
	Get(ctx context.Context, id string) (*models.Dashboard, error)
	GetAndCountView(ctx context.Context, id string) (*models.Dashboard, error)
	GetOwned(ctx context.Context, id, owner string) (*models.Dashboard, error)
	ListByOwner(ctx context.Context, owner string) ([]*models.Dashboard, error)
	ExistsByName(ctx context.Context, owner, name string) (bool, error)
	ToggleShared(ctx context.Context, id, owner string) (bool, error)
	SetPassword(ctx context.Context, id, owner string, hash *string) error
	Save(ctx context.Context, id, owner string, layout, items json.RawMessage, nextID int) error
	Delete(ctx context.Context, id, owner string) error
	Totals(ctx context.Context) (count int64, views int64, err error)
}
